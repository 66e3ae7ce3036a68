package persistence

// Upsert statements, one per write-request kind, grounded directly on
// PGWriteBehind.cpp's prepared statements — adapted to this engine's
// IdT-keyed foreign keys instead of symbol/account-name subselects.
const (
	upsertInstrumentSQL = `
INSERT INTO instruments (symbol, security_id, security_id_source)
VALUES ($1, $2, $3)
ON CONFLICT (symbol) DO UPDATE SET
  security_id = EXCLUDED.security_id,
  security_id_source = EXCLUDED.security_id_source`

	upsertAccountSQL = `
INSERT INTO accounts (account, firm, type)
VALUES ($1, $2, $3::account_type)
ON CONFLICT (account) DO UPDATE SET
  firm = EXCLUDED.firm,
  type = EXCLUDED.type`

	upsertClearingSQL = `
INSERT INTO clearing_firms (firm)
VALUES ($1)
ON CONFLICT (firm) DO NOTHING`

	upsertOrderSQL = `
INSERT INTO orders (
  order_id, order_date, cl_order_id, orig_cl_order_id,
  source, destination, side, ord_type, price, stop_px,
  order_qty, min_qty, leaves_qty, cum_qty, avg_px,
  day_order_qty, day_cum_qty, day_avg_px,
  status, time_in_force, settl_type, capacity, currency,
  instrument_id, instrument_date, account_id, account_date,
  clearing_id, clearing_date, expire_time, settl_date
) VALUES (
  $1, $2, $3, $4,
  $5, $6, $7::side, $8::order_type, $9, $10,
  $11, $12, $13, $14, $15,
  $16, $17, $18,
  $19::order_status, $20::time_in_force, $21::settl_type, $22::capacity, $23::currency,
  $24, $25, $26, $27,
  $28, $29,
  CASE WHEN $30::bigint = 0 THEN NULL ELSE to_timestamp($30::bigint) END,
  CASE WHEN $31::bigint = 0 THEN NULL ELSE $31::bigint END
)
ON CONFLICT (order_id, order_date) DO UPDATE SET
  status = EXCLUDED.status,
  leaves_qty = EXCLUDED.leaves_qty,
  cum_qty = EXCLUDED.cum_qty,
  avg_px = EXCLUDED.avg_px,
  day_order_qty = EXCLUDED.day_order_qty,
  day_cum_qty = EXCLUDED.day_cum_qty,
  day_avg_px = EXCLUDED.day_avg_px,
  cl_order_id = EXCLUDED.cl_order_id,
  orig_cl_order_id = EXCLUDED.orig_cl_order_id`
)
