// Package billform holds the bill-extraction domain: the prompt sent to the model, the preview groups for each bill field, the category tables, and the rules that
// clean up a model's answer (account-name normalization while streaming, category and time repair once the answer is complete).
package billform
