package mysql

// Seeded rows carry no id; (house_name, address) is the natural key, so re-seeding updates in place.
// LAST_INSERT_ID(id) makes the driver report the existing id on the update path.
const upsertPropertySQL = `
INSERT INTO properties
  (id, house_name, address, price, rooms, washrooms, square_feet, latitude, longitude)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  id          = LAST_INSERT_ID(id),
  house_name  = VALUES(house_name),
  address     = VALUES(address),
  price       = VALUES(price),
  rooms       = VALUES(rooms),
  washrooms   = VALUES(washrooms),
  square_feet = VALUES(square_feet),
  latitude    = VALUES(latitude),
  longitude   = VALUES(longitude),
  updated_at  = CURRENT_TIMESTAMP
`

const getPropertySQL = `
SELECT
  id,
  house_name,
  address,
  price,
  rooms,
  washrooms,
  square_feet,
  latitude,
  longitude,
  created_at
FROM properties
WHERE id = ?
`

// Filter clauses are appended by buildCandidatesQuery; order is retrieval order.
const selectCandidatesPrefix = `
SELECT id, house_name, address, price, rooms, latitude, longitude
FROM properties
WHERE latitude IS NOT NULL AND longitude IS NOT NULL`

const selectCandidatesSuffix = `
ORDER BY id
LIMIT ?`
