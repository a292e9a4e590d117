package templates

import (
	"github.com/a-h/templ"
)

// NewBill renders the expense form. accept is the value of the file input's
// accept attribute; empty allows any file.
func NewBill(types []string, accept string) templ.Component {
	return component("new-bill", struct {
		Types  []string
		Accept string
	}{Types: types, Accept: accept})
}

// ProofStatus is swapped under the file input after a selection. A non-empty
// errMsg takes precedence over name.
func ProofStatus(name, errMsg string) templ.Component {
	return component("proof-status", struct {
		Name  string
		Error string
	}{Name: name, Error: errMsg})
}

// Login renders the employee login form with an optional error message.
func Login(errMsg string) templ.Component {
	return component("login", errMsg)
}
