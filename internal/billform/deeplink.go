package billform

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/codalotl/streamfill/internal/partialjson"
)

// AddBillBase is the bookkeeping app's add-bill deep link.
const AddBillBase = "qianji://publicapi/addbill"

// TypeCode returns the bookkeeping app's numeric code for a bill type, or -1 for an unknown type.
func TypeCode(billType string) int {
	switch billType {
	case TypeExpense:
		return 0
	case TypeIncome:
		return 1
	case TypeTransfer:
		return 2
	case TypeRepayment:
		return 3
	}
	return -1
}

var linkFields = []string{FieldMoney, FieldTime, FieldRemark, FieldCategory, FieldAccount, FieldAccountTo}

// AddBillURL returns the deep link that opens the bookkeeping app's add-bill screen prefilled with bill. Fields are emitted in a fixed order and empty fields are left
// out; the type is sent as its numeric code. book, if non-empty, selects the ledger.
func AddBillURL(bill *partialjson.Object, book string) string {
	var params []string
	add := func(key, value string) {
		if value == "" {
			return
		}
		params = append(params, key+"="+queryEscape(value))
	}

	if code := TypeCode(stringField(bill, FieldType)); code >= 0 {
		add(FieldType, strconv.Itoa(code))
	}
	for _, key := range linkFields {
		if v, ok := bill.Get(key); ok {
			add(key, FormatValue(v))
		}
	}
	add("bookname", book)

	return AddBillBase + "?" + strings.Join(params, "&")
}

// queryEscape escapes s for a query value, with spaces as %20 (the app doesn't decode '+').
func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
