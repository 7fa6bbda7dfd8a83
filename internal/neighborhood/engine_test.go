package neighborhood

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propscope/propscope/internal/bbl"
	"github.com/propscope/propscope/internal/errors"
	"github.com/propscope/propscope/internal/registry"
	"github.com/propscope/propscope/internal/socrata"
)

type ledgerCall struct {
	where string
	limit int
}

type ledgerReply struct {
	records []registry.SaleRecord
	err     error
}

// scriptedLedger returns queued replies in call order and records the
// rendered filter of each query it receives.
type scriptedLedger struct {
	calls   []ledgerCall
	replies []ledgerReply
}

func (f *scriptedLedger) Query(_ context.Context, filter socrata.Predicate, limit int) ([]registry.SaleRecord, error) {
	where, err := socrata.Render(filter)
	if err != nil {
		return nil, err
	}
	f.calls = append(f.calls, ledgerCall{where: where, limit: limit})
	if len(f.replies) == 0 {
		return nil, nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply.records, reply.err
}

func newTestEngine(ledger *scriptedLedger) *Engine {
	return NewEngine(ledger, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func sale(label string) registry.SaleRecord {
	return registry.SaleRecord{Neighborhood: label}
}

func TestInferFromExactKeySales(t *testing.T) {
	t.Parallel()

	ledger := &scriptedLedger{replies: []ledgerReply{
		{records: []registry.SaleRecord{sale(""), sale("EAST VILLAGE")}},
	}}

	label, err := newTestEngine(ledger).Infer(context.Background(), bbl.NewKey("1", "391", "16"))
	require.NoError(t, err)
	assert.Equal(t, "EAST VILLAGE", label)

	require.Len(t, ledger.calls, 1)
	assert.Equal(t, "(borough = '1' AND block = 391 AND lot = 16)", ledger.calls[0].where)
	assert.Equal(t, exactSalesLimit, ledger.calls[0].limit)
}

func TestInferBlockModeFirstEncounterWinsTies(t *testing.T) {
	t.Parallel()

	ledger := &scriptedLedger{replies: []ledgerReply{
		{},
		{records: []registry.SaleRecord{
			sale("GRAMERCY"), sale("EAST VILLAGE"), sale("EAST VILLAGE"),
			sale("GRAMERCY"), sale("KIPS BAY"),
		}},
	}}

	label, err := newTestEngine(ledger).Infer(context.Background(), bbl.NewKey("1", "391", "16"))
	require.NoError(t, err)
	assert.Equal(t, "GRAMERCY", label, "two-way tie goes to the first label seen")

	require.Len(t, ledger.calls, 2)
	assert.Equal(t, "((borough = '1' AND block = 391) AND sale_price > 0)", ledger.calls[1].where)
	assert.Equal(t, blockSalesLimit, ledger.calls[1].limit)
}

func TestInferFallsBackToPrecedingBlock(t *testing.T) {
	t.Parallel()

	ledger := &scriptedLedger{replies: []ledgerReply{
		{},
		{},
		{records: []registry.SaleRecord{sale("EAST VILLAGE")}},
	}}

	label, err := newTestEngine(ledger).Infer(context.Background(), bbl.NewKey("1", "391", "16"))
	require.NoError(t, err)
	assert.Equal(t, "EAST VILLAGE", label)

	require.Len(t, ledger.calls, 3, "following block is not queried once the preceding one yields a label")
	assert.Equal(t, "(borough = '1' AND block = 390)", ledger.calls[2].where)
	assert.Equal(t, adjacentBlockLimit, ledger.calls[2].limit)
	assert.NotContains(t, ledger.calls[2].where, "sale_price", "neighboring blocks are sampled without a price filter")
}

func TestInferFollowingBlockWhenPrecedingUnlabeled(t *testing.T) {
	t.Parallel()

	ledger := &scriptedLedger{replies: []ledgerReply{
		{},
		{},
		{records: []registry.SaleRecord{sale("")}},
		{records: []registry.SaleRecord{sale("GRAMERCY")}},
	}}

	label, err := newTestEngine(ledger).Infer(context.Background(), bbl.NewKey("1", "391", "16"))
	require.NoError(t, err)
	assert.Equal(t, "GRAMERCY", label)

	require.Len(t, ledger.calls, 4)
	assert.Equal(t, "(borough = '1' AND block = 392)", ledger.calls[3].where)
}

func TestInferSkipsNonPositivePrecedingBlock(t *testing.T) {
	t.Parallel()

	ledger := &scriptedLedger{replies: []ledgerReply{
		{},
		{},
		{records: []registry.SaleRecord{sale("TRIBECA")}},
	}}

	label, err := newTestEngine(ledger).Infer(context.Background(), bbl.NewKey("1", "1", "10"))
	require.NoError(t, err)
	assert.Equal(t, "TRIBECA", label)

	require.Len(t, ledger.calls, 3)
	assert.Equal(t, "(borough = '1' AND block = 2)", ledger.calls[2].where, "block 0 is never queried")
}

func TestInferUndetermined(t *testing.T) {
	t.Parallel()

	ledger := &scriptedLedger{}

	_, err := newTestEngine(ledger).Infer(context.Background(), bbl.NewKey("1", "391", "16"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUndetermined))
	assert.True(t, errors.IsNotFound(err))
	assert.Len(t, ledger.calls, 4, "every cascade step was tried")
}

func TestInferLedgerFailureContinuesCascade(t *testing.T) {
	t.Parallel()

	ledger := &scriptedLedger{replies: []ledgerReply{
		{err: errors.NewStd("portal unavailable")},
		{records: []registry.SaleRecord{sale("SOHO")}},
	}}

	label, err := newTestEngine(ledger).Infer(context.Background(), bbl.NewKey("1", "500", "22"))
	require.NoError(t, err)
	assert.Equal(t, "SOHO", label)
	assert.Len(t, ledger.calls, 2)
}

func TestInferNormalizesLedgerLabels(t *testing.T) {
	t.Parallel()

	ledger := &scriptedLedger{replies: []ledgerReply{
		{records: []registry.SaleRecord{sale("alphabet city  ")}},
	}}

	label, err := newTestEngine(ledger).Infer(context.Background(), bbl.NewKey("1", "391", "16"))
	require.NoError(t, err)
	assert.Equal(t, "ALPHABET CITY", label)
}
