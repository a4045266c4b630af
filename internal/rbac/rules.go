package rbac

const (
	PermExamView       = "exam:view"
	PermExamCreate     = "exam:create"
	PermExamEdit       = "exam:edit"
	PermExamPublish    = "exam:publish"
	PermExamImport     = "exam:import"
	PermAttemptCreate  = "attempt:create"
	PermAttemptViewAll = "attempt:view-all"
	PermAttemptViewOwn = "attempt:view-own"
)

// RolePermissions is the default policy.
var RolePermissions = map[string][]string{
	"student": {
		PermExamView,
		PermAttemptCreate,
		PermAttemptViewOwn,
	},
	"teacher": {
		"exam:*",
		PermAttemptViewAll,
	},
	"admin": {
		"*", // everything
	},
}
