package pdfsvc

import (
	"context"
	"fmt"
	"sync"

	"github.com/trezcool/gradebook/core/user"
)

// ServiceMock records the credentials it is asked to render instead of writing documents.
type ServiceMock struct {
	mu        sync.Mutex
	Generated [][]user.Credentials
	Err       error // returned by GenerateCredentials when set
}

var _ user.CredentialsGenerator = (*ServiceMock)(nil)

func NewServiceMock() *ServiceMock {
	return &ServiceMock{}
}

func (svc *ServiceMock) GenerateCredentials(_ context.Context, creds []user.Credentials) (string, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.Err != nil {
		return "", svc.Err
	}
	svc.Generated = append(svc.Generated, creds)
	return fmt.Sprintf("credentials-mock-%d.pdf", len(svc.Generated)), nil
}

// Last returns the credentials of the last generated document.
func (svc *ServiceMock) Last() []user.Credentials {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if len(svc.Generated) == 0 {
		return nil
	}
	return svc.Generated[len(svc.Generated)-1]
}
