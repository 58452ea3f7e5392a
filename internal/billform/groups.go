package billform

import "github.com/codalotl/streamfill/internal/spandoc"

var (
	colorType      = spandoc.MustParseColor("#4CAF50")
	colorMoney     = spandoc.MustParseColor("#2196F3")
	colorRemark    = spandoc.MustParseColor("#FF5722")
	colorCategory  = spandoc.MustParseColor("#FF9800")
	colorTime      = spandoc.MustParseColor("#9C27B0")
	colorAccountTo = spandoc.MustParseColor("#FFA740")
)

// Groups returns the preview group for each bill field, keyed by field name (plus GroupWelcome, the opening words). In each group, the element whose ID is the field name
// holds the field's value; the value shown here is a placeholder until the first Modify.
//
// Every element of the catename and accountname2 groups is tagged, so either can be removed through any of its parts.
//
// The returned map and slices are fresh on every call.
func Groups() map[string][]spandoc.Element {
	return map[string][]spandoc.Element{
		GroupWelcome: {
			spandoc.Text(GroupWelcome, "This bill", spandoc.Black),
		},
		FieldAccount: {
			spandoc.Text("", " via ", spandoc.Black),
			spandoc.Glyph("", "@drawable/ic_account_box_black_48dp", spandoc.Red),
			spandoc.Text(FieldAccount, "CMB Debit Card(2333)", spandoc.Red),
		},
		FieldType: {
			spandoc.Glyph("", "@drawable/ic_poll_black_48dp", colorType),
			spandoc.Text(FieldType, TypeExpense, colorType),
		},
		FieldMoney: {
			spandoc.Glyph("", "@drawable/ic_attach_money_black_48dp", colorMoney),
			spandoc.Text(FieldMoney, "0", colorMoney),
			spandoc.Text("", " yuan", spandoc.Black),
		},
		FieldRemark: {
			spandoc.Text("", ", for ", spandoc.Black),
			spandoc.Glyph("", "@drawable/ic_mode_edit_black_48dp", colorRemark),
			spandoc.Text(FieldRemark, "QR payment", colorRemark),
		},
		FieldCategory: {
			spandoc.Text(FieldCategory+".prefix", ", filed under ", spandoc.Black),
			spandoc.Glyph(FieldCategory+".icon", "@drawable/ic_event_note_black_48dp", colorCategory),
			spandoc.Text(FieldCategory, "Snacks", colorCategory),
			spandoc.Text(FieldCategory+".suffix", "", spandoc.Black),
		},
		FieldTime: {
			spandoc.Text("", ", at ", spandoc.Black),
			spandoc.Glyph("", "@drawable/ic_access_alarms_black_48dp", colorTime),
			spandoc.Text(FieldTime, "2025-03-08 18:10:31", colorTime),
		},
		FieldAccountTo: {
			spandoc.Text(FieldAccountTo+".prefix", ", moved to ", spandoc.Black),
			spandoc.Glyph(FieldAccountTo+".icon", "@drawable/ic_portrait_black_48dp", colorAccountTo),
			spandoc.Text(FieldAccountTo, "CMB Credit Card", colorAccountTo),
		},
	}
}
