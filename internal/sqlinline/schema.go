package sqlinline

// QCreateSchema is idempotent and runs without arguments, so it goes through
// the simple protocol and may hold several statements.
const QCreateSchema = `--sql d34fc4fe-2f87-46b2-b33b-37c97f4fb115
create table if not exists profiles (
    id text primary key,
    email text,
    display_name text,
    handle text,
    credits integer not null default 10,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);

create table if not exists password_identities (
    uid text primary key,
    email text not null unique,
    password_hash text not null,
    display_name text,
    created_at timestamptz not null default now()
);

create table if not exists credential_resets (
    token_hash text primary key,
    uid text not null references password_identities(uid) on delete cascade,
    expires_at timestamptz not null,
    used_at timestamptz,
    created_at timestamptz not null default now()
);

create table if not exists integration_tokens (
    provider text primary key,
    token text not null,
    properties jsonb not null default '{}'::jsonb,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
`
