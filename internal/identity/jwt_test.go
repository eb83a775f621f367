package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "fiuportal/pkg/domain"
	dErrors "fiuportal/pkg/domain-errors"
)

func newTestService() *JWTService {
	return NewJWTService("test-signing-key", "fiu-portal", "fiu-staff")
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := newTestService()
	actor := id.ActorID(uuid.New())

	token, err := svc.GenerateToken(actor, id.RoleComplianceOfficer, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, actor.String(), claims.ActorID)
	assert.Equal(t, "compliance_officer", claims.Role)
}

func TestJWTService_RejectsExpired(t *testing.T) {
	svc := newTestService()
	token, err := svc.GenerateToken(id.ActorID(uuid.New()), id.RoleAnalyst, -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestJWTService_RejectsForeignKey(t *testing.T) {
	token, err := NewJWTService("other-key", "fiu-portal", "fiu-staff").
		GenerateToken(id.ActorID(uuid.New()), id.RoleAnalyst, time.Hour)
	require.NoError(t, err)

	_, err = newTestService().ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
