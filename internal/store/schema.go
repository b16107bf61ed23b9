package store

// Tables, in import order. TableCounts reports these five.
var Tables = []string{"activities", "sessions", "tracks", "trackpoints", "locations"}

// schema is idempotent and applied on every open. Geometry columns are WKT
// text in WGS84 (EPSG:4326); the geometry_columns table records that fixed
// datum per table. The locations trigger drops inserts landing within
// ~1 meter of an existing waypoint, and the UNIQUE geom column drops exact
// duplicates.
const schema = `
CREATE TABLE IF NOT EXISTS activities (
    filename TEXT PRIMARY KEY,
    garmin_product TEXT,
    time_created TIMESTAMP,
    name TEXT,
    num_sessions INTEGER,
    sport TEXT,
    sub_sport TEXT,
    timestamp_local TIMESTAMP,
    timestamp_utc TIMESTAMP UNIQUE,
    total_timer_time REAL
);

CREATE TABLE IF NOT EXISTS sessions (
    start_time_utc TIMESTAMP PRIMARY KEY,
    filename TEXT,
    name TEXT,
    sport TEXT,
    sub_sport TEXT,
    start_time_local TIMESTAMP,
    timestamp TIMESTAMP,
    start_position_lat REAL,
    start_position_lon REAL,
    avg_cadence INTEGER,
    max_cadence INTEGER,
    avg_heart_rate INTEGER,
    max_heart_rate INTEGER,
    avg_speed REAL,
    max_speed REAL,
    enhanced_avg_speed REAL,
    enhanced_max_speed REAL,
    avg_temperature INTEGER,
    max_temperature INTEGER,
    total_anaerobic_effect REAL,
    total_ascent INTEGER,
    total_calories INTEGER,
    total_descent INTEGER,
    total_distance REAL,
    total_elapsed_time REAL,
    total_timer_time REAL,
    total_training_effect REAL,
    geom TEXT,
    FOREIGN KEY (filename) REFERENCES activities(filename)
);

CREATE TABLE IF NOT EXISTS tracks (
    start_time_utc TIMESTAMP PRIMARY KEY,
    name TEXT,
    type TEXT,
    cmt TEXT,
    src TEXT,
    geom TEXT,
    FOREIGN KEY (start_time_utc) REFERENCES sessions(start_time_utc)
);

CREATE TABLE IF NOT EXISTS trackpoints (
    timestamp TIMESTAMP PRIMARY KEY,
    start_time_utc TIMESTAMP,
    heartrate REAL,
    temperature REAL,
    cadence REAL,
    position_lat REAL,
    position_lon REAL,
    altitude REAL,
    distance REAL,
    speed REAL,
    vertical_speed REAL,
    geom TEXT,
    FOREIGN KEY (start_time_utc) REFERENCES sessions(start_time_utc)
);

CREATE TABLE IF NOT EXISTS locations (
    fid INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT,
    ele REAL,
    sym TEXT,
    time TIMESTAMP,
    cmt TEXT,
    src TEXT,
    geom TEXT UNIQUE
);

CREATE TABLE IF NOT EXISTS geometry_columns (
    f_table_name TEXT PRIMARY KEY,
    f_geometry_column TEXT NOT NULL,
    geometry_type TEXT NOT NULL,
    srid INTEGER NOT NULL
);

INSERT OR IGNORE INTO geometry_columns VALUES
    ('sessions', 'geom', 'POINT', 4326),
    ('tracks', 'geom', 'LINESTRING', 4326),
    ('trackpoints', 'geom', 'POINT', 4326),
    ('locations', 'geom', 'POINT', 4326);

CREATE INDEX IF NOT EXISTS idx_sessions_filename ON sessions(filename);
CREATE INDEX IF NOT EXISTS idx_trackpoints_session ON trackpoints(start_time_utc);

CREATE TRIGGER IF NOT EXISTS locations_proximity_ignore
BEFORE INSERT ON locations
WHEN new.geom IS NOT NULL AND EXISTS (
    SELECT 1 FROM locations WHERE fit_geomdistance(geom, new.geom) < 0.00001
)
BEGIN
    SELECT RAISE(IGNORE);
END;
`
