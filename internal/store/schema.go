package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS versions (
    id                   TEXT PRIMARY KEY,
    year                 INTEGER NOT NULL,
    name                 TEXT NOT NULL,
    description          TEXT NOT NULL DEFAULT '',
    is_active            INTEGER NOT NULL DEFAULT 0,
    created_by           TEXT NOT NULL DEFAULT '',
    created_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS version_cells (
    version_id           TEXT NOT NULL REFERENCES versions(id) ON DELETE CASCADE,
    account_code         TEXT NOT NULL,
    year                 INTEGER NOT NULL,
    month                INTEGER NOT NULL,
    forecast             TEXT NOT NULL,
    actual               TEXT,
    PRIMARY KEY (version_id, account_code, year, month)
);

CREATE INDEX IF NOT EXISTS idx_versions_year ON versions(year);
`
