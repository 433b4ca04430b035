package sqlinline

const QSelectProfile = `--sql 7c98e190-accd-433e-88be-7d327b552fb4
select id, coalesce(email, ''), coalesce(display_name, ''), coalesce(handle, ''), credits, created_at
from profiles
where id = $1::text
limit 1;
`

const QInsertProfileIfAbsent = `--sql c7de408e-cae1-4a0e-b78a-9704af4b3332
insert into profiles (id, email, display_name, handle, credits, created_at, updated_at)
values ($1::text, nullif($2::text, ''), nullif($3::text, ''), nullif($4::text, ''), $5::int, now(), now())
on conflict (id) do nothing;
`

// QAdjustCredits applies a relative change and refuses to go below zero. No
// row back means the profile is missing or the balance is too low.
const QAdjustCredits = `--sql 4f3928aa-9071-4534-9463-f3e166576317
update profiles
set credits = credits + $2::int,
    updated_at = now()
where id = $1::text
  and credits + $2::int >= 0
returning credits;
`
