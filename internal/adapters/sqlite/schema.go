package sqlite

// schema runs on every open; all statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS bills (
    id            TEXT PRIMARY KEY,
    email         TEXT NOT NULL,
    type          TEXT NOT NULL DEFAULT '',
    name          TEXT NOT NULL DEFAULT '',
    date          TEXT NOT NULL DEFAULT '',
    amount        TEXT NOT NULL DEFAULT '',
    vat           TEXT NOT NULL DEFAULT '',
    pct           TEXT NOT NULL DEFAULT '',
    commentary    TEXT NOT NULL DEFAULT '',
    file_name     TEXT NOT NULL DEFAULT '',
    file_url      TEXT NOT NULL DEFAULT '',
    proof_key     TEXT NOT NULL DEFAULT '',
    proof_type    TEXT NOT NULL DEFAULT '',
    status        TEXT NOT NULL DEFAULT 'pending',
    comment_admin TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bills_email ON bills(email, created_at);
`
