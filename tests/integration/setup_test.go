package integration

import (
	"testing"

	"github.com/rs/zerolog"

	postgresrepo "github.com/mver/payflow/internal/adapter/repository/postgres"
	"github.com/mver/payflow/internal/usecase"
	"github.com/mver/payflow/tests/testutil"
)

// newTransferStack wires the transfer use case against a real database.
func newTransferStack(t *testing.T, db *testutil.TestDB) *usecase.TransferUseCase {
	t.Helper()

	pool := db.Pool
	return usecase.NewTransferUseCase(
		postgresrepo.NewTxManager(pool),
		postgresrepo.NewAccountRepository(pool),
		postgresrepo.NewTransferRepository(pool),
		postgresrepo.NewOutboxRepository(pool),
		postgresrepo.NewULIDGenerator(),
		postgresrepo.NewRetrier(zerolog.Nop()),
		zerolog.Nop(),
	)
}
