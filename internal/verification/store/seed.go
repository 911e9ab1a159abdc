package store

import (
	"context"

	"admission/internal/verification"
)

// SeedRecords are the reference identities available at startup.
var SeedRecords = []verification.Record{
	{RegNumber: "DC101", Name: "A", DateOfBirth: "01-01-2006", NationalID: "1111-1111-1111"},
	{RegNumber: "DC102", Name: "B", DateOfBirth: "02-02-2006", NationalID: "2222-2222-2222"},
	{RegNumber: "DC103", Name: "C", DateOfBirth: "03-03-2006", NationalID: "3333-3333-3333"},
	{RegNumber: "DC104", Name: "D", DateOfBirth: "04-04-2006", NationalID: "4444-4444-4444"},
	{RegNumber: "DC105", Name: "E", DateOfBirth: "05-05-2006", NationalID: "5555-5555-5555"},
}

// Seed loads SeedRecords into s.
func Seed(ctx context.Context, s *InMemory) error {
	for _, r := range SeedRecords {
		if err := s.Append(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
