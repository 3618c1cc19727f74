package rbac

const (
	PermQuizCreate       = "quiz:create"
	PermQuizUpdate       = "quiz:update"
	PermQuizTake         = "quiz:take"
	PermQuizResults      = "quiz:results-own"
	PermCertificateIssue = "certificate:issue"
	PermCertificateList  = "certificate:list-own"
	PermProgressUpdate   = "progress:update-own"
	PermPaymentVerify    = "payment:verify"
)

// RolePermissions is the default policy. Course ownership is checked by the
// services on top of these.
var RolePermissions = map[string][]string{
	"student": {
		PermQuizTake,
		PermQuizResults,
		PermCertificateIssue,
		PermCertificateList,
		PermProgressUpdate,
		PermPaymentVerify,
	},
	"teacher": {
		"quiz:*",
		"certificate:*",
		PermProgressUpdate,
		PermPaymentVerify,
	},
	"admin": {"*"},
}
