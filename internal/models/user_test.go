package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleDashboardSegment(t *testing.T) {
	tests := []struct {
		role string
		want string
	}{
		{role: "Admin", want: "insurer"},
		{role: "ADMIN", want: "insurer"},
		{role: "admin", want: "insurer"},
		{role: "Driver", want: "driver"},
		{role: "Garage", want: "garage"},
		{role: "Assessor", want: "assessor"},
		{role: "Insurer", want: "insurer"},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			assert.Equal(t, tt.want, Role{Name: tt.role}.DashboardSegment())
		})
	}
}

func TestUserDashboardPath(t *testing.T) {
	u := &User{Role: Role{Name: "Driver"}}
	assert.Equal(t, "/dashboard/driver", u.DashboardPath())
}

func TestUserValidate(t *testing.T) {
	valid := User{ID: "u1", Email: "a@b.com", FirstName: "A", Role: Role{Name: "Driver"}}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(u *User)
	}{
		{name: "missing id", mutate: func(u *User) { u.ID = "" }},
		{name: "missing email", mutate: func(u *User) { u.Email = " " }},
		{name: "missing first name", mutate: func(u *User) { u.FirstName = "" }},
		{name: "missing role", mutate: func(u *User) { u.Role = Role{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := valid
			tt.mutate(&u)
			err := u.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidUser))
		})
	}

	var nilUser *User
	assert.Error(t, nilUser.Validate())
}

func TestUserJSONRoundTrip(t *testing.T) {
	original := &User{
		ID:           "u1",
		Email:        "garage@kanda.rw",
		FirstName:    "Jean",
		LastName:     "Mugisha",
		Phone:        "+250788000000",
		Role:         Role{ID: "r3", Name: "Garage"},
		RoleID:       "r3",
		TenantID:     "t1",
		Tenant:       &Tenant{ID: "t1", Name: "Sonarwa"},
		DepartmentID: "d1",
		Department:   &Department{ID: "d1", Name: "Motor"},
		GarageID:     "g1",
		Garage:       &Garage{ID: "g1", Name: "Kigali Auto", Address: "KN 5 Rd"},
		Vehicles:     []Vehicle{{ID: "v1", PlateNumber: "RAD 123 A", Make: "Toyota", Model: "RAV4", Year: 2019}},
		Status:       "active",
		LastLogin:    "2024-05-01T10:00:00.123456Z",
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var restored User
	require.NoError(t, json.Unmarshal(data, &restored))
	assert.Equal(t, original, &restored)
}

func TestUserClone(t *testing.T) {
	original := &User{
		ID:       "u1",
		Tenant:   &Tenant{ID: "t1"},
		Vehicles: []Vehicle{{ID: "v1"}},
	}

	c := original.Clone()
	c.Tenant.Name = "changed"
	c.Vehicles[0].ID = "changed"

	assert.Empty(t, original.Tenant.Name)
	assert.Equal(t, ID("v1"), original.Vehicles[0].ID)

	var nilUser *User
	assert.Nil(t, nilUser.Clone())
}

func TestIDAcceptsStringsAndNumbers(t *testing.T) {
	var u User
	data := `{"id":42,"email":"a@b.com","first_name":"A","role":{"id":7,"name":"Driver"},"role_id":7,"tenant_id":"t1","garage_id":null}`
	require.NoError(t, json.Unmarshal([]byte(data), &u))

	assert.Equal(t, ID("42"), u.ID)
	assert.Equal(t, ID("7"), u.Role.ID)
	assert.Equal(t, ID("7"), u.RoleID)
	assert.Equal(t, ID("t1"), u.TenantID)
	assert.Empty(t, u.GarageID)
	require.NoError(t, u.Validate())

	var bad User
	assert.Error(t, json.Unmarshal([]byte(`{"id":{"nested":true}}`), &bad))
}

func TestMergeJSON_KeepsUnknownFields(t *testing.T) {
	base := json.RawMessage(`{
		"id": 3,
		"email": "a@b.com",
		"first_name": "A",
		"role": {"id": 2, "name": "Driver", "permissions": ["claims:read"]},
		"tenant_id": "t1",
		"tenant": {"id": "t1", "name": "Radiant", "code": "RAD"},
		"vehicles": [{"id": "v1", "plate_number": "RAD 123 A", "vin": "JT123"}],
		"created_at": "2024-01-01T00:00:00Z"
	}`)

	var u User
	require.NoError(t, json.Unmarshal(base, &u))
	u.Phone = "+250788999999"
	u.Tenant.Name = "Radiant Insurance"

	merged, err := u.MergeJSON(base)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"id": 3,
		"email": "a@b.com",
		"first_name": "A",
		"phone": "+250788999999",
		"role": {"id": 2, "name": "Driver", "permissions": ["claims:read"]},
		"tenant_id": "t1",
		"tenant": {"id": "t1", "name": "Radiant Insurance", "code": "RAD"},
		"vehicles": [{"id": "v1", "plate_number": "RAD 123 A", "vin": "JT123"}],
		"created_at": "2024-01-01T00:00:00Z"
	}`, string(merged))
}

func TestMergeJSON_NoBase(t *testing.T) {
	u := &User{ID: "u1", Email: "a@b.com", FirstName: "A", Role: Role{Name: "Driver"}}

	merged, err := u.MergeJSON(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"u1","email":"a@b.com","first_name":"A","role":{"name":"Driver"}}`, string(merged))
}
