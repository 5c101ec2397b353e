package wallet

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/evenza/settlement/internal/apperrors"
	"github.com/evenza/settlement/internal/logger"
	"github.com/evenza/settlement/internal/models"
	"github.com/evenza/settlement/internal/repository"
	"github.com/evenza/settlement/internal/repository/postgres"
	"github.com/evenza/settlement/internal/testutil"
)

func TestWithdraw(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	dest := Destination{
		AccountNumber: "000111222333",
		IFSC:          "HDFC0001234",
		HolderName:    "Jordan Organizer",
	}

	inTx := func(t *testing.T, balance int64, fn func(storage repository.Storage, service *WalletService, userID uuid.UUID)) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)

			user, err := storage.User().CreateUser(t.Context(), repository.CreateUserParams{
				Name:  "organizer",
				Email: "organizer@example.com",
			})
			require.NoError(t, err)

			_, err = storage.Wallet().GetOrCreateWallet(t.Context(), user.ID)
			require.NoError(t, err)

			if balance > 0 {
				_, err = storage.Wallet().Credit(t.Context(), user.ID, balance, "ticket sale", nil)
				require.NoError(t, err)
			}

			fn(storage, NewService(storage, nil, logger.NewNoOp()), user.ID)
		})
	}

	t.Run("withdraw ok", func(t *testing.T) {
		inTx(t, 1000, func(storage repository.Storage, service *WalletService, userID uuid.UUID) {
			result, err := service.Withdraw(t.Context(), userID, 400, dest)

			require.NoError(t, err, "withdrawal within balance should be ok")
			require.Equal(t, int64(400), result.Amount)
			require.Equal(t, int64(600), result.NewBalance)
			require.False(t, result.ProcessedAt.IsZero())

			entries, err := storage.Wallet().ListEntries(t.Context(), userID)
			require.NoError(t, err)
			require.Len(t, entries, 2, "credit plus debit expected")

			var debit models.WalletEntry
			for _, e := range entries {
				if e.Type == models.EntryTypeDebit {
					debit = e
				}
			}
			require.Equal(t, int64(400), debit.Amount)
			require.Contains(t, debit.Description, "2333", "description should carry the masked account only")
			require.NotContains(t, debit.Description, dest.AccountNumber)
		})
	})

	t.Run("withdraw full balance ok", func(t *testing.T) {
		inTx(t, 1000, func(storage repository.Storage, service *WalletService, userID uuid.UUID) {
			result, err := service.Withdraw(t.Context(), userID, 1000, dest)

			require.NoError(t, err, "amount equal to balance should be allowed")
			require.Zero(t, result.NewBalance)
		})
	})

	t.Run("withdraw over balance fail", func(t *testing.T) {
		inTx(t, 1000, func(storage repository.Storage, service *WalletService, userID uuid.UUID) {
			_, err := service.Withdraw(t.Context(), userID, 1001, dest)

			require.Error(t, err)
			require.ErrorIs(t, err, apperrors.ErrBalanceInsufficient)

			wallet, err := storage.Wallet().GetWallet(t.Context(), userID)
			require.NoError(t, err)
			require.Equal(t, int64(1000), wallet.Balance, "failed withdrawal should leave balance unchanged")

			entries, err := storage.Wallet().ListEntries(t.Context(), userID)
			require.NoError(t, err)
			require.Len(t, entries, 1, "failed withdrawal should not append history")
		})
	})

	t.Run("non positive amount fail", func(t *testing.T) {
		inTx(t, 1000, func(_ repository.Storage, service *WalletService, userID uuid.UUID) {
			_, err := service.Withdraw(t.Context(), userID, 0, dest)
			require.ErrorIs(t, err, apperrors.ErrInvalidAmount)

			_, err = service.Withdraw(t.Context(), userID, -5, dest)
			require.ErrorIs(t, err, apperrors.ErrInvalidAmount)
		})
	})

	t.Run("missing wallet fail", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			service := NewService(storage, nil, logger.NewNoOp())

			user, err := storage.User().CreateUser(t.Context(), repository.CreateUserParams{
				Name:  "organizer",
				Email: "organizer@example.com",
			})
			require.NoError(t, err)

			_, err = service.Withdraw(t.Context(), user.ID, 100, dest)

			require.Error(t, err)
			require.ErrorIs(t, err, apperrors.ErrWalletNotFound)
		})
	})
}

func TestGetWallet(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("wallet with history", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			service := NewService(storage, nil, logger.NewNoOp())

			user, err := storage.User().CreateUser(t.Context(), repository.CreateUserParams{
				Name:  "organizer",
				Email: "organizer@example.com",
			})
			require.NoError(t, err)

			_, err = storage.Wallet().GetOrCreateWallet(t.Context(), user.ID)
			require.NoError(t, err)
			_, err = storage.Wallet().Credit(t.Context(), user.ID, 700, "ticket sale", nil)
			require.NoError(t, err)

			wallet, entries, err := service.GetWallet(t.Context(), user.ID)

			require.NoError(t, err)
			require.Equal(t, int64(700), wallet.Balance)
			require.Len(t, entries, 1)
		})
	})

	t.Run("missing wallet fail", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			service := NewService(storage, nil, logger.NewNoOp())

			_, _, err := service.GetWallet(t.Context(), uuid.New())

			require.Error(t, err)
			require.ErrorIs(t, err, apperrors.ErrWalletNotFound)
		})
	})
}
