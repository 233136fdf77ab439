package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugnoguchigxp/regular-rag/helper"
)

func TestOwnedStoreCloseReleasesConnection(t *testing.T) {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err)

	store, err := NewOwnedStore(dbConfig, nil)
	require.NoError(t, err)

	require.NoError(t, store.Close())
	assert.Error(t, store.database().Instance.Ping())
}

func TestBorrowedStoreCloseIsNoop(t *testing.T) {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err)

	owned, err := helper.NewDatabase("borrow-source", dbConfig, nil)
	require.NoError(t, err)
	defer owned.Close()

	borrowed, err := NewBorrowedStore(owned.Instance, nil)
	require.NoError(t, err)

	require.NoError(t, borrowed.Close())
	assert.NoError(t, owned.Instance.Ping())
}

func TestNewBorrowedStoreRejectsNilInstance(t *testing.T) {
	_, err := NewBorrowedStore(nil, nil)
	assert.Error(t, err)
}
