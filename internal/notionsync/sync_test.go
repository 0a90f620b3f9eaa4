package notionsync

import (
	"context"
	"math/big"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jomei/notionapi"

	infra "github.com/pfalabs/finance-assistant/internal/infra/bigquery"
)

type mockNotion struct {
	pages   []notionapi.Page
	created []notionapi.Properties
	deleted []string
}

func (m *mockNotion) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	m.created = append(m.created, properties)
	return &notionapi.Page{ID: notionapi.ObjectID("new-page")}, nil
}

func (m *mockNotion) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
	return &notionapi.Page{ID: notionapi.ObjectID(pageID)}, nil
}

func (m *mockNotion) QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return &notionapi.DatabaseQueryResponse{Results: m.pages, HasMore: false}, nil
}

func (m *mockNotion) DeletePage(ctx context.Context, pageID string) error {
	m.deleted = append(m.deleted, pageID)
	return nil
}

type mockRepo struct {
	rows []*infra.TransactionRow
}

func (m *mockRepo) InsertTransaction(ctx context.Context, row *infra.TransactionRow) error { return nil }
func (m *mockRepo) InsertTransactions(ctx context.Context, rows []*infra.TransactionRow) error {
	return nil
}

func (m *mockRepo) QueryUserTransactions(ctx context.Context, userID string, filter infra.TransactionQuery) ([]*infra.TransactionRow, error) {
	return m.rows, nil
}

func (m *mockRepo) ListUserCategories(ctx context.Context, userID string) ([]string, error) {
	return nil, nil
}

func (m *mockRepo) SumByCategory(ctx context.Context, userID, txType string, start, end time.Time) ([]*infra.CategorySum, error) {
	return nil, nil
}

func (m *mockRepo) SumExpensesByDate(ctx context.Context, userID string, start, end time.Time) ([]*infra.DateSum, error) {
	return nil, nil
}

func (m *mockRepo) SumMonthly(ctx context.Context, userID string, start, end time.Time) ([]*infra.MonthlySum, error) {
	return nil, nil
}

func storedPage(pageID, txID string) notionapi.Page {
	return notionapi.Page{
		ID: notionapi.ObjectID(pageID),
		Properties: notionapi.Properties{
			"Transaction ID": &notionapi.RichTextProperty{
				RichText: []notionapi.RichText{{PlainText: txID}},
			},
		},
	}
}

func testRow(txID, desc string, amount int64) *infra.TransactionRow {
	return &infra.TransactionRow{
		TransactionID: txID,
		UserID:        "u1",
		Type:          "expense",
		Amount:        big.NewRat(amount, 1),
		Category:      "Groceries",
		Description:   desc,
		TxnDate:       civil.Date{Year: 2026, Month: 8, Day: 15},
		Source:        "manual",
		CreatedTS:     time.Now(),
	}
}

func TestSyncCreatesMissingAndSkipsExisting(t *testing.T) {
	notion := &mockNotion{pages: []notionapi.Page{storedPage("p1", "t1")}}
	repo := &mockRepo{rows: []*infra.TransactionRow{
		testRow("t1", "already synced", 100),
		testRow("t2", "new transaction", 250),
	}}

	err := SyncTransactions(context.Background(), repo, notion, "db", "u1",
		time.Now().AddDate(0, -1, 0), time.Now(), false)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	if len(notion.created) != 1 {
		t.Fatalf("created %d pages, want 1", len(notion.created))
	}
	if len(notion.deleted) != 0 {
		t.Errorf("deleted %d pages, want 0", len(notion.deleted))
	}
	title, ok := notion.created[0]["Description"].(notionapi.TitleProperty)
	if !ok || title.Title[0].Text.Content != "new transaction" {
		t.Errorf("created page = %+v", notion.created[0])
	}
}

func TestSyncDeletesStalePages(t *testing.T) {
	notion := &mockNotion{pages: []notionapi.Page{
		storedPage("p1", "t-gone"),
		storedPage("p2", ""),
	}}
	repo := &mockRepo{}

	err := SyncTransactions(context.Background(), repo, notion, "db", "u1",
		time.Now().AddDate(0, -1, 0), time.Now(), false)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	if len(notion.deleted) != 2 {
		t.Errorf("deleted %d pages, want 2 (stale and untagged)", len(notion.deleted))
	}
}

func TestSyncDryRunPerformsNoMutations(t *testing.T) {
	notion := &mockNotion{pages: []notionapi.Page{storedPage("p1", "t-gone")}}
	repo := &mockRepo{rows: []*infra.TransactionRow{testRow("t2", "new transaction", 250)}}

	err := SyncTransactions(context.Background(), repo, notion, "db", "u1",
		time.Now().AddDate(0, -1, 0), time.Now(), true)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	if len(notion.created) != 0 || len(notion.deleted) != 0 {
		t.Errorf("dry run created %d and deleted %d pages", len(notion.created), len(notion.deleted))
	}
}

func TestTransactionToNotionProperties(t *testing.T) {
	row := testRow("t1", "weekly shop", 4500)
	row.ReceiptID = "r1"

	props := TransactionToNotionProperties(row)

	amount, ok := props["Amount"].(notionapi.NumberProperty)
	if !ok || amount.Number != 4500 {
		t.Errorf("amount = %+v", props["Amount"])
	}
	typ, ok := props["Type"].(notionapi.SelectProperty)
	if !ok || typ.Select.Name != "expense" {
		t.Errorf("type = %+v", props["Type"])
	}
	if _, ok := props["Receipt ID"]; !ok {
		t.Error("receipt ID missing")
	}

	row.ReceiptID = ""
	props = TransactionToNotionProperties(row)
	if _, ok := props["Receipt ID"]; ok {
		t.Error("receipt ID set for manual transaction")
	}
}
