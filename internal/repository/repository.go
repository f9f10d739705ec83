// Package repository reads and writes Supabase tables through PostgREST.
// Every method takes the caller's access token so RLS policies decide what
// the caller may see or change.
package repository

import (
	"context"
	"fmt"

	postgrest "github.com/supabase-community/postgrest-go"

	sb "orangecat/internal/supabase"
)

// RestProvider hands out PostgREST clients. *supabase.Client implements it.
type RestProvider interface {
	Rest(ctx context.Context, token string) *postgrest.Client
	AdminRest(ctx context.Context) *postgrest.Client
}

var newestFirst = &postgrest.OrderOpts{Ascending: false}

func restErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, sb.ClassifyRestError(err))
}
