package db

import (
	"context"
	"testing"
	"time"

	"Gin_postgres_redis_workshop_inventory/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func borrow(t *testing.T, repo *Repo, tool *models.Tool, unitIDs []string, due time.Time) *models.BorrowingTransaction {
	t.Helper()
	bt, err := repo.CreateBorrowing(context.Background(), CreateBorrowingInput{
		DisplayID:    "BR-2026-" + tool.ID[:8],
		BorrowerName: "alice",
		DueDate:      due,
		Purpose:      "maintenance",
		Lines:        []BorrowLine{{ToolID: tool.ID, UnitIDs: unitIDs}},
	})
	require.NoError(t, err)
	return bt
}

func TestReserveSpecificUnits(t *testing.T) {
	repo, now := newTestRepo(t)
	tool := createTestTool(t, repo, "Drill", 3)

	bt := borrow(t, repo, tool, []string{tool.Units[0].ID, tool.Units[1].ID}, now.Add(48*time.Hour))
	assert.Equal(t, models.BorrowingActive, bt.Status)
	require.Len(t, bt.Items, 1)
	assert.Equal(t, 2, bt.Items[0].Quantity)
	require.Len(t, bt.Items[0].Units, 2)
	assert.Equal(t, models.ConditionExcellent, bt.Items[0].Units[0].ConditionAtBorrow)

	reloaded, err := repo.FindToolByID(context.Background(), tool.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.AvailableQuantity)
	assertToolInvariant(t, repo, tool.ID)

	// 已占用的单元再借必须整笔拒绝
	_, err = repo.CreateBorrowing(context.Background(), CreateBorrowingInput{
		DisplayID:    "BR-2026-dup",
		BorrowerName: "bob",
		DueDate:      now.Add(24 * time.Hour),
		Lines:        []BorrowLine{{ToolID: tool.ID, UnitIDs: []string{tool.Units[1].ID}}},
	})
	var availErr *InsufficientAvailabilityError
	require.ErrorAs(t, err, &availErr)
	assert.Equal(t, "Drill", availErr.ToolName)
	assert.Equal(t, 1, availErr.Requested)
	assert.Equal(t, 0, availErr.Available)
	assertToolInvariant(t, repo, tool.ID)
}

func TestReserveByQuantityShortfallDoesNotPartiallyReserve(t *testing.T) {
	repo, now := newTestRepo(t)
	tool := createTestTool(t, repo, "Ladder", 3)

	_, err := repo.CreateBorrowing(context.Background(), CreateBorrowingInput{
		DisplayID:    "BR-2026-big",
		BorrowerName: "alice",
		DueDate:      now.Add(24 * time.Hour),
		Lines:        []BorrowLine{{ToolID: tool.ID, Quantity: 5}},
	})
	var availErr *InsufficientAvailabilityError
	require.ErrorAs(t, err, &availErr)
	assert.Equal(t, 5, availErr.Requested)
	assert.Equal(t, 3, availErr.Available)

	// 整笔回滚：一件都没占
	reloaded, err := repo.FindToolByID(context.Background(), tool.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.AvailableQuantity)
	assertToolInvariant(t, repo, tool.ID)
}

func TestReserveByQuantityResolvesUnits(t *testing.T) {
	repo, now := newTestRepo(t)
	tool := createTestTool(t, repo, "Clamp", 4)

	bt, err := repo.CreateBorrowing(context.Background(), CreateBorrowingInput{
		DisplayID:    "BR-2026-qty",
		BorrowerName: "bob",
		DueDate:      now.Add(24 * time.Hour),
		Lines:        []BorrowLine{{ToolID: tool.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	require.Len(t, bt.Items[0].Units, 2)
	assertToolInvariant(t, repo, tool.ID)
}

func TestRoundTripFullReturnCompletes(t *testing.T) {
	repo, now := newTestRepo(t)
	tool := createTestTool(t, repo, "Drill", 3)
	bt := borrow(t, repo, tool, []string{tool.Units[0].ID, tool.Units[1].ID}, now.Add(48*time.Hour))

	var returns []UnitReturn
	for _, id := range borrowAllUnitIDs(bt) {
		returns = append(returns, UnitReturn{ItemUnitID: id, Condition: models.ConditionExcellent})
	}
	updated, err := repo.ReturnBorrowingUnits(context.Background(), bt.ID, returns)
	require.NoError(t, err)
	assert.Equal(t, models.BorrowingCompleted, updated.Status)
	require.NotNil(t, updated.ReturnDate)

	reloaded, err := repo.FindToolByID(context.Background(), tool.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.AvailableQuantity)
	assertToolInvariant(t, repo, tool.ID)
}

func TestPartialReturnKeepsTransactionOpen(t *testing.T) {
	repo, now := newTestRepo(t)
	tool := createTestTool(t, repo, "Drill", 2)
	bt := borrow(t, repo, tool, []string{tool.Units[0].ID, tool.Units[1].ID}, now.Add(48*time.Hour))

	first := bt.Items[0].Units[0]
	updated, err := repo.ReturnBorrowingUnits(context.Background(), bt.ID, []UnitReturn{
		{ItemUnitID: first.ID, Condition: models.ConditionGood},
	})
	require.NoError(t, err)
	assert.Equal(t, models.BorrowingActive, updated.Status)
	assert.Nil(t, updated.ReturnDate)

	reloaded, err := repo.FindToolByID(context.Background(), tool.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.AvailableQuantity)
	assertToolInvariant(t, repo, tool.ID)

	// 同一件再还一次
	_, err = repo.ReturnBorrowingUnits(context.Background(), bt.ID, []UnitReturn{
		{ItemUnitID: first.ID, Condition: models.ConditionGood},
	})
	assert.ErrorIs(t, err, ErrUnitAlreadyReturned)
}

func TestReturnConditionOnlyDegrades(t *testing.T) {
	repo, now := newTestRepo(t)
	tool := createTestTool(t, repo, "Drill", 2)
	bt := borrow(t, repo, tool, []string{tool.Units[0].ID, tool.Units[1].ID}, now.Add(48*time.Hour))

	_, err := repo.ReturnBorrowingUnits(context.Background(), bt.ID, []UnitReturn{
		{ItemUnitID: bt.Items[0].Units[0].ID, Condition: models.ConditionPoor, Notes: "chuck wobbles"},
		{ItemUnitID: bt.Items[0].Units[1].ID, Condition: models.ConditionExcellent},
	})
	require.NoError(t, err)

	reloaded, err := repo.FindToolByID(context.Background(), tool.ID)
	require.NoError(t, err)
	byNumber := map[int]models.Condition{}
	for _, u := range reloaded.Units {
		byNumber[u.UnitNumber] = u.Condition
	}
	assert.Equal(t, models.ConditionPoor, byNumber[tool.Units[0].UnitNumber])
	assert.Equal(t, models.ConditionExcellent, byNumber[tool.Units[1].UnitNumber])
	assert.Equal(t, models.ConditionPoor, reloaded.WorstCondition())
}

func TestReturnRejectsInvalidCondition(t *testing.T) {
	repo, now := newTestRepo(t)
	tool := createTestTool(t, repo, "Drill", 1)
	bt := borrow(t, repo, tool, []string{tool.Units[0].ID}, now.Add(48*time.Hour))

	_, err := repo.ReturnBorrowingUnits(context.Background(), bt.ID, []UnitReturn{
		{ItemUnitID: bt.Items[0].Units[0].ID, Condition: models.Condition("RUSTY")},
	})
	assert.ErrorIs(t, err, ErrInvalidCondition)
}

func TestCancelRestoresAllUnits(t *testing.T) {
	repo, now := newTestRepo(t)
	tool := createTestTool(t, repo, "Drill", 3)
	bt := borrow(t, repo, tool, []string{tool.Units[0].ID, tool.Units[1].ID}, now.Add(48*time.Hour))

	require.NoError(t, repo.CancelBorrowing(context.Background(), bt.ID))

	reloaded, err := repo.FindToolByID(context.Background(), tool.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.AvailableQuantity)
	assertToolInvariant(t, repo, tool.ID)

	got, err := repo.FindBorrowingByID(context.Background(), bt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BorrowingCancelled, got.Status)
}

func TestCancelRejectedAfterAnyReturn(t *testing.T) {
	repo, now := newTestRepo(t)
	tool := createTestTool(t, repo, "Drill", 2)
	bt := borrow(t, repo, tool, []string{tool.Units[0].ID, tool.Units[1].ID}, now.Add(48*time.Hour))

	_, err := repo.ReturnBorrowingUnits(context.Background(), bt.ID, []UnitReturn{
		{ItemUnitID: bt.Items[0].Units[0].ID, Condition: models.ConditionGood},
	})
	require.NoError(t, err)

	err = repo.CancelBorrowing(context.Background(), bt.ID)
	var stateErr *InvalidStateTransitionError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "cancel", stateErr.Attempted)
	assertToolInvariant(t, repo, tool.ID)
}

func TestTerminalStatesRejectAllMutation(t *testing.T) {
	repo, now := newTestRepo(t)
	tool := createTestTool(t, repo, "Drill", 1)
	bt := borrow(t, repo, tool, []string{tool.Units[0].ID}, now.Add(48*time.Hour))
	require.NoError(t, repo.CancelBorrowing(context.Background(), bt.ID))

	var stateErr *InvalidStateTransitionError

	err := repo.CancelBorrowing(context.Background(), bt.ID)
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, models.BorrowingCancelled, stateErr.Current)

	_, err = repo.ExtendDueDate(context.Background(), bt.ID, now.Add(7*24*time.Hour), "")
	require.ErrorAs(t, err, &stateErr)

	_, err = repo.ReturnBorrowingUnits(context.Background(), bt.ID, []UnitReturn{
		{ItemUnitID: bt.Items[0].Units[0].ID, Condition: models.ConditionGood},
	})
	require.ErrorAs(t, err, &stateErr)

	// 取消后单元还是可用的，前面的失败没有动库存
	assertToolInvariant(t, repo, tool.ID)
}

func TestExtendGuards(t *testing.T) {
	repo, now := newTestRepo(t)
	tool := createTestTool(t, repo, "Drill", 1)
	bt := borrow(t, repo, tool, []string{tool.Units[0].ID}, now.Add(5*24*time.Hour))

	_, err := repo.ExtendDueDate(context.Background(), bt.ID, now.Add(-time.Hour), "late")
	assert.ErrorIs(t, err, ErrDueDatePast)

	_, err = repo.ExtendDueDate(context.Background(), bt.ID, now.Add(3*24*time.Hour), "shorter")
	assert.ErrorIs(t, err, ErrDueDateNotLater)

	_, err = repo.ExtendDueDate(context.Background(), bt.ID, now.Add(30*24*time.Hour).Add(time.Second), "too far")
	assert.ErrorIs(t, err, ErrDueDateTooFar)

	// 正好 30 天放行
	updated, err := repo.ExtendDueDate(context.Background(), bt.ID, now.Add(30*24*time.Hour), "project delay")
	require.NoError(t, err)
	assert.True(t, updated.DueDate.Equal(now.Add(30*24*time.Hour)))
	assert.Contains(t, updated.Notes, "project delay")
}

func TestOverdueSweepAndExtendBack(t *testing.T) {
	dbConn := setupTestDB(t)
	now := time.Now().UTC().Truncate(time.Second)
	repo := NewRepo(dbConn).WithNowFunc(func() time.Time { return now })

	tool := createTestTool(t, repo, "Drill", 1)
	due := now.Add(24 * time.Hour)
	bt := borrow(t, repo, tool, []string{tool.Units[0].ID}, due)

	// 到期次日，读路径触发清扫
	now = due.Add(24 * time.Hour)
	res, err := repo.ListBorrowings(context.Background(), BorrowingsQuery{Status: models.BorrowingOverdue})
	require.NoError(t, err)
	require.Len(t, res.Borrowings, 1)
	assert.Equal(t, bt.ID, res.Borrowings[0].ID)

	// 延期成功后回到 ACTIVE
	updated, err := repo.ExtendDueDate(context.Background(), bt.ID, due.Add(10*24*time.Hour), "project delay")
	require.NoError(t, err)
	assert.Equal(t, models.BorrowingActive, updated.Status)

	// 清扫幂等
	require.NoError(t, repo.SweepOverdue(context.Background()))
	got, err := repo.FindBorrowingByID(context.Background(), bt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BorrowingActive, got.Status)
}

func TestCreateBorrowingRejectsPastDueDate(t *testing.T) {
	repo, now := newTestRepo(t)
	tool := createTestTool(t, repo, "Drill", 1)

	_, err := repo.CreateBorrowing(context.Background(), CreateBorrowingInput{
		DisplayID:    "BR-2026-old",
		BorrowerName: "alice",
		DueDate:      now.Add(-time.Hour),
		Lines:        []BorrowLine{{ToolID: tool.ID, UnitIDs: []string{tool.Units[0].ID}}},
	})
	assert.ErrorIs(t, err, ErrDueDatePast)
	assertToolInvariant(t, repo, tool.ID)
}
