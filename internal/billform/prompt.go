package billform

// Field names of a bill, as they appear in the model's JSON answer and as preview group ids.
const (
	FieldType         = "type"
	FieldMoney        = "money"
	FieldTime         = "time"
	FieldRemark       = "remark"
	FieldCategory     = "catename"
	FieldAccount      = "accountname"
	FieldAccountTo    = "accountname2"
	GroupWelcome      = "welcome"
	TimeLayout        = "2006-01-02 15:04:05"
	timeLayoutMinutes = "2006-01-02 15:04"
)

// SystemPrompt instructs the model to turn OCR lines of a payment screen into one bill, as a JSON object.
const SystemPrompt = `
# Analyze the OCR scan of a payment or order screen and output the bill as JSON, following the example structure.

## Fields
### ` + "`type`" + `

- **Description**: the bill type. One of:
  - expense
  - income
- **Default**: expense, if it can't be determined.
- **Example**: expense
- **Required**: yes

### ` + "`money`" + `

- **Description**: the bill amount.
  - At most 2 decimal places.
  - Prefer negative amounts when present, but output the absolute value.
- **Example**: ` + "`26.5`" + `
- **Required**: yes

### ` + "`time`" + `

- **Description**: the bill time, formatted exactly as ` + "`yyyy-MM-dd HH:mm:ss`" + `.
  - Omit it if no time can be recognized.
- **Example**: ` + "`2020-01-31 12:30:00`" + `
- **Required**: no

### ` + "`remark`" + `

- **Description**: a short note about the bill. Empty by default.
  - At most 15 words.
- **Example**: ` + "`Coffee at Starbucks`" + `
- **Required**: no

### ` + "`catename`" + `

- **Description**: the bill category name.
  - If type is expense, one of: Meals, Snacks, Clothing, Transport, Travel, Children, Pets, Phone & Internet, Tobacco & Alcohol, Education, Daily Necessities, Housing, Beauty, Medical, Red Packets Sent, Car & Fuel, Entertainment, Gifts & Treats, Electronics, Sports, Other, Utilities.
  - If type is income, one of: Salary, Living Allowance, Red Packets Received, Side Income, Investments, Other.
- **Example**: ` + "`Meals`" + `
- **Required**: no

### ` + "`accountname`" + `

- **Description**: the account the bill belongs to (or the source account of a transfer).
- **Example**: ` + "`SPDB Credit Card(2333)`" + `
- **Required**: yes for expenses and income

## Example output:
{
  "accountname": "CMB Credit Card(2331)",
  "type": "expense",
  "money": 26.6,
  "remark": "Coffee at Starbucks",
  "catename": "Meals",
  "time": "2020-01-31 12:30:00"
}

## Return only the JSON object, with no other text and no ` + "```json```" + ` markers.
`
