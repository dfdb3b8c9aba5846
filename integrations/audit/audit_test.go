package audit

import (
	"context"
	"fmt"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"milkfactory/core/events"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := Open(DriverSQLite, dsn)
	require.NoError(t, err)
	return db
}

func TestSinkRecordsRenderedEvents(t *testing.T) {
	sink, err := NewSink(openTestDB(t), nil)
	require.NoError(t, err)
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	sink.SetNowFunc(func() time.Time { return fixed })

	recipient := common.HexToAddress("0x00000000000000000000000000000000000000b2")
	sink.Emit(events.Transfer{Asset: "mlk", To: recipient, Amount: big.NewInt(70)})
	sink.Emit(events.DailyClaim{Recipient: recipient, PetID: big.NewInt(7), Type: "ITEMS", Rarity: "COMMON", Quantity: big.NewInt(1)})

	records, err := sink.List(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, uint64(1), records[0].Sequence)
	require.Equal(t, events.TypeTransfer, records[0].Type)
	require.True(t, records[0].CreatedAt.Equal(fixed))

	attrs, err := records[0].Decode()
	require.NoError(t, err)
	require.Equal(t, "MLK", attrs["asset"])
	require.Equal(t, "70", attrs["amount"])
	require.Equal(t, "0x0000000000000000000000000000000000000000", attrs["from"])

	require.Equal(t, events.TypeDailyClaim, records[1].Type)
}

func TestSinkListFilters(t *testing.T) {
	sink, err := NewSink(openTestDB(t), nil)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		sink.Emit(events.Transfer{Asset: "MLK", Amount: big.NewInt(int64(i))})
		sink.Emit(events.TokenSupply{Token: "MLK", Total: big.NewInt(int64(i))})
	}

	transfers, err := sink.List(context.Background(), Query{Type: events.TypeTransfer})
	require.NoError(t, err)
	require.Len(t, transfers, 5)

	page, err := sink.List(context.Background(), Query{After: 6, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, uint64(7), page[0].Sequence)
	require.Equal(t, uint64(8), page[1].Sequence)
}

func TestSinkResumesSequence(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "audit.db")
	db, err := Open(DriverSQLite, dsn)
	require.NoError(t, err)
	first, err := NewSink(db, nil)
	require.NoError(t, err)
	first.Emit(events.Transfer{Asset: "MLK", Amount: big.NewInt(1)})
	first.Emit(events.Transfer{Asset: "MLK", Amount: big.NewInt(2)})

	reopened, err := Open(DriverSQLite, dsn)
	require.NoError(t, err)
	second, err := NewSink(reopened, nil)
	require.NoError(t, err)
	require.NoError(t, second.Record(context.Background(), events.Transfer{Asset: "MLK", Amount: big.NewInt(3)}))

	records, err := second.List(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, uint64(3), records[2].Sequence)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "dsn")
	require.ErrorContains(t, err, "unsupported driver")
}
