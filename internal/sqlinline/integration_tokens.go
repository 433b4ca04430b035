package sqlinline

// QSelectIntegrationToken reads the server-wide key for one provider.
const QSelectIntegrationToken = `--sql 3e0c7a51-9d24-4b8f-a6e2-51c0f98d7b13
select token
from integration_tokens
where provider = $1::text;
`

// QUpsertIntegrationToken replaces the key and its audit properties.
const QUpsertIntegrationToken = `--sql a81f4d6e-2c37-4e95-b0d8-7f6a3c1e9b52
insert into integration_tokens (provider, token, properties, updated_at)
values ($1::text, $2::text, coalesce($3::jsonb, '{}'::jsonb), now())
on conflict (provider) do update set
    token = excluded.token,
    properties = excluded.properties,
    updated_at = now();
`
