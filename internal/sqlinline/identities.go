package sqlinline

const QInsertPasswordIdentity = `--sql 98c810eb-4494-45ca-bf33-b49309835713
insert into password_identities (uid, email, password_hash, created_at)
values ($1::text, lower($2::text), $3::text, now())
on conflict (email) do nothing
returning uid;
`

const QSelectPasswordIdentity = `--sql 17114eda-ee12-4001-9500-b68e3ec24fe3
select uid, email, password_hash, coalesce(display_name, '')
from password_identities
where email = lower($1::text)
limit 1;
`

const QUpdateIdentityDisplayName = `--sql c00ed1ff-bd12-4889-bf69-d454429f6141
update password_identities
set display_name = $2::text
where uid = $1::text;
`

const QInsertCredentialReset = `--sql 9e93b74e-ee31-4b74-86c4-447828d65cee
insert into credential_resets (token_hash, uid, expires_at, created_at)
select $2::text, uid, now() + interval '1 hour', now()
from password_identities
where email = lower($1::text)
returning uid;
`
