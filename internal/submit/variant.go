package submit

import "github.com/spec-kit/auth-portal/internal/apiclient"

// Navigation targets requested after a successful submission.
const (
	TargetDashboard = "/dashboard"
	TargetSuccess   = "/success"
)

// Variant describes one form flavor: where it posts and where it goes afterwards.
type Variant struct {
	Name          string
	Title         string
	Endpoint      string
	SuccessTarget string
	// StoresToken makes the workflow read "token" from the reply and persist it.
	StoresToken bool
}

var (
	Login = Variant{
		Name:          "login",
		Title:         "Login",
		Endpoint:      apiclient.LoginPath,
		SuccessTarget: TargetDashboard,
		StoresToken:   true,
	}
	Registration = Variant{
		Name:          "register",
		Title:         "Register",
		Endpoint:      apiclient.RegisterPath,
		SuccessTarget: TargetSuccess,
	}
)

func (v Variant) lockName() string {
	return "submit:" + v.Name
}
