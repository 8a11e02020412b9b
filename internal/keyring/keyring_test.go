package keyring

import (
	"testing"

	gokeyring "github.com/zalando/go-keyring"
)

func TestSetAndGet(t *testing.T) {
	gokeyring.MockInit()

	testConnStr := "postgres://testuser@localhost:5432/testdb?sslmode=disable"
	if err := SetConnectionString(testConnStr); err != nil {
		t.Fatalf("SetConnectionString() failed: %v", err)
	}
	if err := Set(RedisPassword, "hunter2"); err != nil {
		t.Fatalf("Set(RedisPassword) failed: %v", err)
	}

	retrieved, err := GetConnectionString()
	if err != nil {
		t.Fatalf("GetConnectionString() failed: %v", err)
	}
	if retrieved != testConnStr {
		t.Errorf("GetConnectionString() = %q, want %q", retrieved, testConnStr)
	}

	pw, err := Get(RedisPassword)
	if err != nil {
		t.Fatalf("Get(RedisPassword) failed: %v", err)
	}
	if pw != "hunter2" {
		t.Errorf("Get(RedisPassword) = %q, want %q", pw, "hunter2")
	}
}

func TestSetEmpty(t *testing.T) {
	gokeyring.MockInit()

	if err := SetConnectionString(""); err == nil {
		t.Error("SetConnectionString(\"\") should return an error")
	}
}

func TestGetNotFound(t *testing.T) {
	gokeyring.MockInit()

	for _, e := range Entries {
		_ = Delete(e)
		if _, err := Get(e); err != ErrNotFound {
			t.Errorf("Get(%s) error = %v, want %v", e, err, ErrNotFound)
		}
	}
}

func TestDelete(t *testing.T) {
	gokeyring.MockInit()

	if err := Set(RedisPassword, "secret"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if err := Delete(RedisPassword); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := Get(RedisPassword); err != ErrNotFound {
		t.Errorf("Get() after Delete() error = %v, want %v", err, ErrNotFound)
	}
	if err := Delete(RedisPassword); err != ErrNotFound {
		t.Errorf("Delete() twice error = %v, want %v", err, ErrNotFound)
	}
}

func TestParseEntry(t *testing.T) {
	tests := []struct {
		in      string
		want    Entry
		wantErr bool
	}{
		{"db", DatabaseConnection, false},
		{"database-connection", DatabaseConnection, false},
		{"redis", RedisPassword, false},
		{"redis-password", RedisPassword, false},
		{"smtp", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEntry(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEntry(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseEntry(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsAvailable(t *testing.T) {
	gokeyring.MockInit()

	if !IsAvailable() {
		t.Error("IsAvailable() = false with mock keyring")
	}
}
