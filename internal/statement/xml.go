// Package statement renders account ledgers as XML statement documents.
package statement

import (
	"fmt"
	"time"

	"github.com/Dan9191/web-banking/internal/models"
	"github.com/Dan9191/web-banking/internal/utils"
	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
)

// Header identifies the account and period a statement covers
type Header struct {
	AccountNumber string
	From          string // empty for unbounded
	To            string
	GeneratedAt   time.Time
}

// RenderXML builds a statement document. Entries are written in the order
// given, which is newest first for ledger queries.
func RenderXML(h Header, entries []models.Transaction) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("Statement")
	root.CreateAttr("account", h.AccountNumber)
	if h.From != "" {
		root.CreateAttr("from", h.From)
	}
	if h.To != "" {
		root.CreateAttr("to", h.To)
	}
	root.CreateAttr("generatedAt", h.GeneratedAt.Format(time.RFC3339))

	totalDebit, totalCredit := decimal.Zero, decimal.Zero
	for _, t := range entries {
		e := root.CreateElement("Entry")
		e.CreateAttr("id", t.ID)
		e.CreateAttr("type", string(t.Type))
		e.CreateElement("Date").SetText(t.Date)
		e.CreateElement("Description").SetText(t.Description)
		e.CreateElement("Amount").SetText(utils.FormatAmount(t.Amount))
		e.CreateElement("BalanceAfter").SetText(utils.FormatAmount(t.BalanceAfter))

		switch t.Type {
		case models.Debit:
			totalDebit = totalDebit.Add(t.Amount)
		case models.Credit:
			totalCredit = totalCredit.Add(t.Amount)
		}
	}

	summary := root.CreateElement("Summary")
	summary.CreateAttr("count", fmt.Sprint(len(entries)))
	summary.CreateElement("TotalDebit").SetText(utils.FormatAmount(totalDebit))
	summary.CreateElement("TotalCredit").SetText(utils.FormatAmount(totalCredit))

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to write statement: %w", err)
	}
	return out, nil
}
