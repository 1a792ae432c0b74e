package domain

// DNSResponse is what the resolver hands back to the transport: the echoed
// question plus answers in store order. Expired answers are filtered by the
// encoder, so len(Answers) is not necessarily the ANCOUNT on the wire.
type DNSResponse struct {
	ID       uint16
	Question Question
	Answers  []Record
}

// HasAnswers returns true if the response carries answer records.
func (resp DNSResponse) HasAnswers() bool {
	return len(resp.Answers) > 0
}
