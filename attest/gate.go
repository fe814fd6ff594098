package attest

// The authorization gate. Two submission paths share one duplicate
// check downstream of it: self-submission, where the caller is the
// recipient, and sponsored submission, where the administrator issues
// on a reviewer's behalf. Deletion is administrator-only; reviewers
// cannot revoke even their own attestation.

func (a *Authority) authorizeSubmit(caller, recipient string) error {
	if caller == recipient {
		return nil
	}
	if caller == a.admin {
		return nil
	}
	return ErrNotAuthorized
}

func (a *Authority) authorizeDelete(caller string) error {
	if caller != a.admin {
		return ErrNotAuthorized
	}
	return nil
}
