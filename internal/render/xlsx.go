package render

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sohith73/flashfire-CRM/pkg/crm"
)

// WriteRankingXLSX writes the BDA performance ranking to an XLSX file,
// one row per BDA in ranked order.
func WriteRankingXLSX(path string, rows []crm.BdaPerformance) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("BDA Ranking")
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Rank", "BDA Email", "BDA Name", "Total Leads", "Paid Leads", "Revenue (INR)"} {
		header.AddCell().SetString(h)
	}

	for i, r := range SortRanking(rows) {
		row := sheet.AddRow()
		row.AddCell().SetInt(i + 1)
		row.AddCell().SetString(r.BdaEmail)
		row.AddCell().SetString(r.BdaName)
		row.AddCell().SetInt(r.TotalLeads)
		row.AddCell().SetInt(r.PaidLeads)
		row.AddCell().SetFloat(r.Revenue)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

// WriteLeadsXLSX writes leads to an XLSX file for offline review.
func WriteLeadsXLSX(path string, leads []crm.Lead) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Booking ID", "Client", "Email", "Status", "Plan", "Plan Price", "Claimed By"} {
		header.AddCell().SetString(h)
	}

	for i := range leads {
		lead := &leads[i]
		row := sheet.AddRow()
		row.AddCell().SetString(lead.BookingID)
		row.AddCell().SetString(lead.ClientName)
		row.AddCell().SetString(lead.ClientEmail)
		row.AddCell().SetString(string(lead.BookingStatus))
		if lead.PaymentPlan != nil {
			row.AddCell().SetString(lead.PaymentPlan.Name)
			row.AddCell().SetString(fmt.Sprintf("%.2f %s", lead.PaymentPlan.Price, lead.PaymentPlan.Currency))
		} else {
			row.AddCell().SetString("")
			row.AddCell().SetString("")
		}
		if lead.Claimed() {
			row.AddCell().SetString(lead.ClaimedBy.Email)
		} else {
			row.AddCell().SetString("")
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}
