package apiclient

import "github.com/target/storefront-go/internal/ports"

func registerInput(name, email, password string) ports.RegisterInput {
	return ports.RegisterInput{Name: name, Email: email, Password: password}
}
