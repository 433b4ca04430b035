// Package supabase backs the account gateway with Supabase: GoTrue for
// identities and PostgREST for profiles.
package supabase

import (
	"fmt"

	supa "github.com/supabase-community/supabase-go"
)

// NewClient connects with the service key.
func NewClient(url, key string) (*supa.Client, error) {
	client, err := supa.NewClient(url, key, &supa.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return client, nil
}

// AdjustCreditsFunctionSQL creates the RPC used for relative balance changes.
// Apply it once in the Supabase SQL editor.
const AdjustCreditsFunctionSQL = `--sql 2b7e51c9-64f0-4d8a-9a3c-e1f07d5b8c42
create or replace function adjust_credits(p_user_id text, p_delta int)
returns int
language plpgsql
as $$
declare
  new_balance int;
begin
  update profiles
     set credits = credits + p_delta,
         updated_at = now()
   where id = p_user_id
     and credits + p_delta >= 0
  returning credits into new_balance;

  if new_balance is null then
    if exists (select 1 from profiles where id = p_user_id) then
      raise exception 'insufficient credits' using errcode = 'P0001';
    end if;
    raise exception 'profile not found' using errcode = 'P0002';
  end if;
  return new_balance;
end;
$$;
`
