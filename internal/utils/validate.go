package utils

import "regexp" // Regular expressions

var digitsOnly = regexp.MustCompile(`^[0-9]+$`)

// IsValidStudentID checks the identifier is numeric with 9 or 10 digits
func IsValidStudentID(studentID string) bool {
	return len(studentID) >= 9 && len(studentID) <= 10 && digitsOnly.MatchString(studentID)
}

// IsValidCredential checks the credential is numeric with exactly length digits
func IsValidCredential(credential string, length int) bool {
	return len(credential) == length && digitsOnly.MatchString(credential)
}
