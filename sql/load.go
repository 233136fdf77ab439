package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed documents.sql
var documentsSQL string

//go:embed graph.sql
var graphSQL string

//go:embed cache.sql
var cacheSQL string

// DocumentsFunctions lists the stored functions the documents repository
// depends on existing before it will serve a request.
var DocumentsFunctions = []string{
	"init_documents",
	"upsert_document",
	"select_document",
	"select_documents_by_vector",
	"select_documents_by_text",
}

// GraphFunctions lists the stored functions the graph repository depends on.
var GraphFunctions = []string{
	"init_graph",
	"upsert_node",
	"delete_node",
	"upsert_edge",
	"delete_edge",
	"select_node_by_id",
	"select_node_by_name",
	"select_nodes_by_names",
	"select_nodes_by_ids",
	"search_nodes",
	"select_neighbors",
	"traverse_nodes_batch",
	"find_weighted_paths",
}

// CacheFunctions lists the stored functions the response cache repository
// depends on.
var CacheFunctions = []string{
	"init_cache",
	"find_cache_by_hash",
	"save_cache",
	"increment_cache_hit",
}

// Init initializes the database extensions required by every repository.
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadDocumentsSql loads the document-related SQL functions.
func LoadDocumentsSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, DocumentsFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing documents functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(documentsSQL)
	if err != nil {
		return fmt.Errorf("error executing documents SQL: %w", err)
	}

	exist, err := checkFunctions(db, DocumentsFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL documents functions loaded successfully")
	return nil
}

// LoadGraphSql loads the node/edge-related SQL functions.
func LoadGraphSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, GraphFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing graph functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(graphSQL)
	if err != nil {
		return fmt.Errorf("error executing graph SQL: %w", err)
	}

	exist, err := checkFunctions(db, GraphFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL graph functions loaded successfully")
	return nil
}

// LoadCacheSql loads the response-cache-related SQL functions.
func LoadCacheSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, CacheFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing cache functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(cacheSQL)
	if err != nil {
		return fmt.Errorf("error executing cache SQL: %w", err)
	}

	exist, err := checkFunctions(db, CacheFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL cache functions loaded successfully")
	return nil
}

// LoadAllSql loads every stored function group.
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadDocumentsSql(db, force); err != nil {
		return err
	}

	if err := LoadGraphSql(db, force); err != nil {
		return err
	}

	if err := LoadCacheSql(db, force); err != nil {
		return err
	}

	return nil
}

// checkFunctions verifies that all required functions exist in the database.
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
