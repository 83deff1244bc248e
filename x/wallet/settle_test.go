package wallet

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/iov-one/blendsafe"
	"github.com/iov-one/blendsafe/blendsafetest"
	"github.com/iov-one/blendsafe/blendsafetest/assert"
	"github.com/iov-one/blendsafe/errors"
	"github.com/iov-one/blendsafe/store"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
)

// failingDB makes the next commits fail, as a full or broken disk would.
type failingDB struct {
	*store.DBStore

	mu    sync.Mutex
	fails int
}

func (f *failingDB) CacheWrap() blendsafe.KVCacheWrap {
	return store.NewBTreeCacheWrap(f.DBStore, &failingBatch{Batch: f.DBStore.NewBatch(), db: f}, nil)
}

func (f *failingDB) failNext(n int) {
	f.mu.Lock()
	f.fails = n
	f.mu.Unlock()
}

func (f *failingDB) shouldFail() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fails == 0 {
		return false
	}
	f.fails--
	return true
}

type failingBatch struct {
	blendsafe.Batch
	db *failingDB
}

func (b *failingBatch) Write() error {
	if b.db.shouldFail() {
		return errors.Wrap(errors.ErrDatabase, "no space left on device")
	}
	return b.Batch.Write()
}

func TestSettleSigningAfterStorageFailure(t *testing.T) {
	cases := map[string]struct {
		commitFailures int
		wantErr        *errors.Error
		wantStatus     string
		wantStuckLog   bool
	}{
		"one failed commit": {
			commitFailures: 1,
			wantStatus:     "signed",
		},
		"failures until the last attempt": {
			commitFailures: settleAttempts - 1,
			wantStatus:     "signed",
		},
		"storage stays broken": {
			commitFailures: settleAttempts,
			wantErr:        errors.ErrDatabase,
			wantStatus:     "signing",
			wantStuckLog:   true,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := &failingDB{DBStore: blendsafetest.MemStore()}
			gw := blendsafetest.NewGateway(t)
			var logs bytes.Buffer
			s := NewStore(db, gw, WithLogger(log.NewTMLogger(log.NewSyncWriter(&logs))))
			ctx, payload := readyToSign(t, s)

			// Commits before the gateway call must succeed.
			gw.BeforeSign = func(context.Context) error {
				db.failNext(tc.commitFailures)
				return nil
			}

			sig, err := s.Sign(ctx, "w", payload)
			if tc.wantErr == nil {
				require.NoError(t, err)
				require.Len(t, sig, 65)
			} else {
				assert.IsErr(t, tc.wantErr, err)
				require.Nil(t, sig)
			}
			require.Equal(t, tc.wantStatus, requestStatus(t, s, payload))
			require.Equal(t, tc.wantStuckLog, strings.Contains(logs.String(), "request left in signing state"))

			if tc.wantStuckLog {
				n, err := s.RecoverInterrupted(context.Background())
				require.NoError(t, err)
				require.Equal(t, 1, n)
				require.Equal(t, "proposed", requestStatus(t, s, payload))
			}
		})
	}
}
