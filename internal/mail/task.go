package mail

// Task is a fully rendered, self-contained unit of outbound mail. Once
// enqueued it carries no reference to the identity or credential that
// produced it.
type Task struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	HTMLBody  string `json:"html_body"`
	PlainBody string `json:"plain_body"`
}
