// Package algorand feeds txfeed from an Algorand indexer by polling the
// account transactions endpoint.
package algorand

import (
	"context"
	"net/url"
	"strconv"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/Asthay97/personal-bank-fullstack/internal/ingest"
	transporthttp "github.com/Asthay97/personal-bank-fullstack/internal/pkg/transport/http"
)

type (
	PaymentTransaction struct {
		Receiver string `json:"receiver"`
		Amount   uint64 `json:"amount"`
	}

	ApplicationTransaction struct {
		ApplicationID uint64 `json:"application-id"`
	}

	// Transaction is the subset of an indexer transaction txfeed reads.
	// Inner transactions come without an id.
	Transaction struct {
		ID                     string                  `json:"id"`
		Sender                 string                  `json:"sender"`
		TxType                 string                  `json:"tx-type"`
		Fee                    uint64                  `json:"fee"`
		ConfirmedRound         uint64                  `json:"confirmed-round"`
		Group                  string                  `json:"group"`
		PaymentTransaction     *PaymentTransaction     `json:"payment-transaction"`
		ApplicationTransaction *ApplicationTransaction `json:"application-transaction"`
		InnerTxns              []Transaction           `json:"inner-txns"`
	}

	// TransactionsResponse is one page of /v2/accounts/{account}/transactions.
	// Transactions are newest first.
	TransactionsResponse struct {
		CurrentRound uint64        `json:"current-round"`
		NextToken    string        `json:"next-token"`
		Transactions []Transaction `json:"transactions"`
	}
)

func (t Transaction) toEvent() ingest.Event {
	e := ingest.Event{
		ID:             t.ID,
		Type:           t.TxType,
		Sender:         t.Sender,
		Fee:            t.Fee,
		ConfirmedRound: t.ConfirmedRound,
		GroupID:        t.Group,
	}
	if t.PaymentTransaction != nil {
		e.Receiver = t.PaymentTransaction.Receiver
		e.Amount = t.PaymentTransaction.Amount
	}
	if t.ApplicationTransaction != nil {
		e.ApplicationID = t.ApplicationTransaction.ApplicationID
	}
	for _, in := range t.InnerTxns {
		e.InnerTransactions = append(e.InnerTransactions, in.toEvent())
	}
	return e
}

type query struct {
	minRound  uint64
	limit     int
	nextToken string
}

type indexer struct {
	http    *retryablehttp.Client
	baseURL *url.URL
}

func newIndexer(client *retryablehttp.Client, indexerURL string) (*indexer, error) {
	base, err := url.Parse(indexerURL)
	if err != nil {
		return nil, err
	}
	return &indexer{http: client, baseURL: base}, nil
}

func (i *indexer) accountTransactions(ctx context.Context, account string, q query) (TransactionsResponse, error) {
	u := i.baseURL.JoinPath("v2", "accounts", account, "transactions")

	values := url.Values{}
	if q.minRound > 0 {
		values.Set("min-round", strconv.FormatUint(q.minRound, 10))
	}
	if q.limit > 0 {
		values.Set("limit", strconv.Itoa(q.limit))
	}
	if q.nextToken != "" {
		values.Set("next", q.nextToken)
	}
	u.RawQuery = values.Encode()

	var resp TransactionsResponse
	err := transporthttp.GetJSON(ctx, i.http, u.String(), &resp)
	return resp, err
}

// since collects every transaction confirmed at or after minRound,
// following pagination. The result is newest first.
func (i *indexer) since(ctx context.Context, account string, minRound uint64, pageSize int) (TransactionsResponse, error) {
	var all TransactionsResponse

	q := query{minRound: minRound, limit: pageSize}
	for {
		page, err := i.accountTransactions(ctx, account, q)
		if err != nil {
			return TransactionsResponse{}, err
		}

		if all.CurrentRound == 0 {
			all.CurrentRound = page.CurrentRound
		}
		all.Transactions = append(all.Transactions, page.Transactions...)

		if page.NextToken == "" || len(page.Transactions) == 0 {
			return all, nil
		}
		q.nextToken = page.NextToken
	}
}
