package auth

// ExternalIdentity is what a third-party sign-in asserts about a person.
// Subject is the provider's stable account ID; the email is verified.
type ExternalIdentity struct {
	Subject string
	Email   string
	Name    *string
}
