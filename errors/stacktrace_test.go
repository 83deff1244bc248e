package errors_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/iov-one/blendsafe/errors"
	"github.com/iov-one/blendsafe/store"
	"github.com/stretchr/testify/require"
)

func TestStoreErrorStackTrace(t *testing.T) {
	_, emptyKey := store.MemStore().Get(nil)
	_, badBackend := store.Open("rocksdb", "wallets", "")

	cases := map[string]struct {
		err       error
		wantMsg   string
		wantCode  uint32
		wantFrame string
	}{
		"empty key rejected by the db store": {
			err:       emptyKey,
			wantMsg:   "empty key: database",
			wantCode:  errors.ErrDatabase.Code(),
			wantFrame: "store/db.go",
		},
		"unknown backend": {
			err:       badBackend,
			wantMsg:   `unknown database backend "rocksdb": invalid input`,
			wantCode:  errors.ErrInput.Code(),
			wantFrame: "store/db.go",
		},
		"bucket read on top of a store failure": {
			err:       errors.Wrap(emptyKey, "cannot read from the database"),
			wantMsg:   "cannot read from the database: empty key: database",
			wantCode:  errors.ErrDatabase.Code(),
			wantFrame: "store/db.go",
		},
		"driver error": {
			err:       errors.Wrap(fmt.Errorf("resource temporarily unavailable"), "open wallets"),
			wantMsg:   "open wallets: resource temporarily unavailable",
			wantCode:  1,
			wantFrame: "errors/stacktrace_test.go",
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			require.Error(t, tc.err)
			require.Equal(t, tc.wantMsg, tc.err.Error())
			require.Equal(t, tc.wantCode, errors.Code(tc.err))

			short := fmt.Sprintf("%v", tc.err)
			require.NotContains(t, short, "\n")

			// Only the innermost wrap carries a stack.
			full := fmt.Sprintf("%+v", tc.err)
			require.Contains(t, full, tc.wantMsg)
			require.Equal(t, 1, strings.Count(full, tc.wantFrame+":"), full)
		})
	}
}
