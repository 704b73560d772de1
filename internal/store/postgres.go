package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is a pgx-backed Store, grounded in the same connection-pool
// and query-wrapping style as the rest of this codebase's persistence
// layer.
type Postgres struct {
	pool *pgxpool.Pool
}

// Open connects to PostgreSQL and pings it before returning.
func Open(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() { p.pool.Close() }

// Pool returns the underlying pgx pool. Migrate does not use it; it
// opens its own database/sql handle from the DSN.
func (p *Postgres) Pool() *pgxpool.Pool { return p.pool }

func (p *Postgres) Accounts() AccountRepository     { return pgAccounts{p.pool} }
func (p *Postgres) Characters() CharacterRepository { return pgCharacters{p.pool} }
func (p *Postgres) Companions() CompanionRepository { return pgCompanions{p.pool} }
func (p *Postgres) Abilities() AbilityRepository    { return pgAbilities{p.pool} }
func (p *Postgres) Zones() ZoneRepository           { return pgZones{p.pool} }
func (p *Postgres) Inventory() InventoryRepository  { return pgInventory{p.pool} }

func noRows(err error) bool { return errors.Is(err, pgx.ErrNoRows) }

type pgAccounts struct{ pool *pgxpool.Pool }

func (r pgAccounts) Get(ctx context.Context, id string) (*Account, error) {
	var a Account
	err := r.pool.QueryRow(ctx,
		`SELECT id, login, password_hash, access_level, last_server, last_ip, last_active
		 FROM accounts WHERE id = $1`, id,
	).Scan(&a.ID, &a.Login, &a.PasswordHash, &a.AccessLevel, &a.LastServer, &a.LastIP, &a.LastActive)
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying account %q: %w", id, err)
	}
	return &a, nil
}

func (r pgAccounts) FindByLogin(ctx context.Context, login string) (*Account, error) {
	var a Account
	err := r.pool.QueryRow(ctx,
		`SELECT id, login, password_hash, access_level, last_server, last_ip, last_active
		 FROM accounts WHERE login = $1`, strings.ToLower(login),
	).Scan(&a.ID, &a.Login, &a.PasswordHash, &a.AccessLevel, &a.LastServer, &a.LastIP, &a.LastActive)
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying account by login %q: %w", login, err)
	}
	return &a, nil
}

func (r pgAccounts) Create(ctx context.Context, a *Account) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO accounts (id, login, password_hash, access_level, last_server, last_ip, last_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, strings.ToLower(a.Login), a.PasswordHash, a.AccessLevel, a.LastServer, a.LastIP, a.LastActive,
	)
	if err != nil {
		return fmt.Errorf("creating account %q: %w", a.Login, err)
	}
	return nil
}

func (r pgAccounts) Update(ctx context.Context, a *Account) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE accounts SET access_level = $2, last_server = $3, last_ip = $4, last_active = $5
		 WHERE id = $1`,
		a.ID, a.AccessLevel, a.LastServer, a.LastIP, a.LastActive,
	)
	if err != nil {
		return fmt.Errorf("updating account %q: %w", a.ID, err)
	}
	return nil
}

func (r pgAccounts) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting account %q: %w", id, err)
	}
	return nil
}

func (r pgAccounts) UpdateLastSeen(ctx context.Context, id string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE accounts SET last_active = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("updating last-seen for account %q: %w", id, err)
	}
	return nil
}

type pgCharacters struct{ pool *pgxpool.Pool }

func (r pgCharacters) Get(ctx context.Context, id string) (*Character, error) {
	var c Character
	var coreStats map[string]float64
	err := r.pool.QueryRow(ctx,
		`SELECT id, account_id, zone_id, name, level, x, y, z,
		        current_health, max_health, current_stamina, max_stamina, current_mana, max_mana,
		        core_stats, created_at, last_seen_at
		 FROM characters WHERE id = $1`, id,
	).Scan(&c.ID, &c.AccountID, &c.ZoneID, &c.Name, &c.Level, &c.X, &c.Y, &c.Z,
		&c.CurrentHealth, &c.MaxHealth, &c.CurrentStamina, &c.MaxStamina, &c.CurrentMana, &c.MaxMana,
		&coreStats, &c.CreatedAt, &c.LastSeenAt)
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying character %q: %w", id, err)
	}
	c.CoreStats = coreStats
	return &c, nil
}

func (r pgCharacters) FindByName(ctx context.Context, name string) (*Character, error) {
	var c Character
	var coreStats map[string]float64
	err := r.pool.QueryRow(ctx,
		`SELECT id, account_id, zone_id, name, level, x, y, z,
		        current_health, max_health, current_stamina, max_stamina, current_mana, max_mana,
		        core_stats, created_at, last_seen_at
		 FROM characters WHERE lower(name) = lower($1)`, name,
	).Scan(&c.ID, &c.AccountID, &c.ZoneID, &c.Name, &c.Level, &c.X, &c.Y, &c.Z,
		&c.CurrentHealth, &c.MaxHealth, &c.CurrentStamina, &c.MaxStamina, &c.CurrentMana, &c.MaxMana,
		&coreStats, &c.CreatedAt, &c.LastSeenAt)
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying character by name %q: %w", name, err)
	}
	c.CoreStats = coreStats
	return &c, nil
}

func (r pgCharacters) FindByZoneID(ctx context.Context, zoneID int32) ([]*Character, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, account_id, zone_id, name, level, x, y, z,
		        current_health, max_health, current_stamina, max_stamina, current_mana, max_mana,
		        core_stats, created_at, last_seen_at
		 FROM characters WHERE zone_id = $1`, zoneID)
	if err != nil {
		return nil, fmt.Errorf("querying characters for zone %d: %w", zoneID, err)
	}
	defer rows.Close()

	var out []*Character
	for rows.Next() {
		var c Character
		var coreStats map[string]float64
		if err := rows.Scan(&c.ID, &c.AccountID, &c.ZoneID, &c.Name, &c.Level, &c.X, &c.Y, &c.Z,
			&c.CurrentHealth, &c.MaxHealth, &c.CurrentStamina, &c.MaxStamina, &c.CurrentMana, &c.MaxMana,
			&coreStats, &c.CreatedAt, &c.LastSeenAt); err != nil {
			return nil, fmt.Errorf("scanning character row: %w", err)
		}
		c.CoreStats = coreStats
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating character rows: %w", err)
	}
	return out, nil
}

func (r pgCharacters) Create(ctx context.Context, c *Character) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO characters (id, account_id, zone_id, name, level, x, y, z,
		        current_health, max_health, current_stamina, max_stamina, current_mana, max_mana,
		        core_stats, created_at, last_seen_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		c.ID, c.AccountID, c.ZoneID, c.Name, c.Level, c.X, c.Y, c.Z,
		c.CurrentHealth, c.MaxHealth, c.CurrentStamina, c.MaxStamina, c.CurrentMana, c.MaxMana,
		c.CoreStats, c.CreatedAt, c.LastSeenAt,
	)
	if err != nil {
		return fmt.Errorf("creating character %q: %w", c.Name, err)
	}
	return nil
}

func (r pgCharacters) Update(ctx context.Context, c *Character) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE characters SET zone_id=$2, name=$3, level=$4, x=$5, y=$6, z=$7,
		        current_health=$8, max_health=$9, current_stamina=$10, max_stamina=$11,
		        current_mana=$12, max_mana=$13, core_stats=$14, last_seen_at=$15
		 WHERE id=$1`,
		c.ID, c.ZoneID, c.Name, c.Level, c.X, c.Y, c.Z,
		c.CurrentHealth, c.MaxHealth, c.CurrentStamina, c.MaxStamina,
		c.CurrentMana, c.MaxMana, c.CoreStats, c.LastSeenAt,
	)
	if err != nil {
		return fmt.Errorf("updating character %q: %w", c.ID, err)
	}
	return nil
}

func (r pgCharacters) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM characters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting character %q: %w", id, err)
	}
	return nil
}

// UpdatePosition is the movement-tick hot path: only coordinates move.
func (r pgCharacters) UpdatePosition(ctx context.Context, id string, x, y, z float64) error {
	_, err := r.pool.Exec(ctx, `UPDATE characters SET x=$2, y=$3, z=$4 WHERE id=$1`, id, x, y, z)
	if err != nil {
		return fmt.Errorf("updating position for character %q: %w", id, err)
	}
	return nil
}

// UpdateResources is the combat-tick hot path: only the resource pools move.
func (r pgCharacters) UpdateResources(ctx context.Context, id string, res Resources) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE characters SET current_health=$2, current_stamina=$3, current_mana=$4 WHERE id=$1`,
		id, res.CurrentHealth, res.CurrentStamina, res.CurrentMana,
	)
	if err != nil {
		return fmt.Errorf("updating resources for character %q: %w", id, err)
	}
	return nil
}

func (r pgCharacters) UpdateHealth(ctx context.Context, id string, health float64) error {
	_, err := r.pool.Exec(ctx, `UPDATE characters SET current_health=$2 WHERE id=$1`, id, health)
	if err != nil {
		return fmt.Errorf("updating health for character %q: %w", id, err)
	}
	return nil
}

func (r pgCharacters) UpdateLastSeen(ctx context.Context, id string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE characters SET last_seen_at=$2 WHERE id=$1`, id, at)
	if err != nil {
		return fmt.Errorf("updating last-seen for character %q: %w", id, err)
	}
	return nil
}

type pgCompanions struct{ pool *pgxpool.Pool }

func (r pgCompanions) Get(ctx context.Context, id string) (*Companion, error) {
	var c Companion
	var coreStats map[string]float64
	err := r.pool.QueryRow(ctx,
		`SELECT id, zone_id, name, x, y, z, current_health, max_health, core_stats, created_at, last_seen_at
		 FROM companions WHERE id = $1`, id,
	).Scan(&c.ID, &c.ZoneID, &c.Name, &c.X, &c.Y, &c.Z, &c.CurrentHealth, &c.MaxHealth, &coreStats, &c.CreatedAt, &c.LastSeenAt)
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying companion %q: %w", id, err)
	}
	c.CoreStats = coreStats
	return &c, nil
}

func (r pgCompanions) FindByName(ctx context.Context, name string) (*Companion, error) {
	var c Companion
	var coreStats map[string]float64
	err := r.pool.QueryRow(ctx,
		`SELECT id, zone_id, name, x, y, z, current_health, max_health, core_stats, created_at, last_seen_at
		 FROM companions WHERE lower(name) = lower($1)`, name,
	).Scan(&c.ID, &c.ZoneID, &c.Name, &c.X, &c.Y, &c.Z, &c.CurrentHealth, &c.MaxHealth, &coreStats, &c.CreatedAt, &c.LastSeenAt)
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying companion by name %q: %w", name, err)
	}
	c.CoreStats = coreStats
	return &c, nil
}

func (r pgCompanions) FindByZoneID(ctx context.Context, zoneID int32) ([]*Companion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, zone_id, name, x, y, z, current_health, max_health, core_stats, created_at, last_seen_at
		 FROM companions WHERE zone_id = $1`, zoneID)
	if err != nil {
		return nil, fmt.Errorf("querying companions for zone %d: %w", zoneID, err)
	}
	defer rows.Close()

	var out []*Companion
	for rows.Next() {
		var c Companion
		var coreStats map[string]float64
		if err := rows.Scan(&c.ID, &c.ZoneID, &c.Name, &c.X, &c.Y, &c.Z, &c.CurrentHealth, &c.MaxHealth, &coreStats, &c.CreatedAt, &c.LastSeenAt); err != nil {
			return nil, fmt.Errorf("scanning companion row: %w", err)
		}
		c.CoreStats = coreStats
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating companion rows: %w", err)
	}
	return out, nil
}

func (r pgCompanions) Create(ctx context.Context, c *Companion) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO companions (id, zone_id, name, x, y, z, current_health, max_health, core_stats, created_at, last_seen_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		c.ID, c.ZoneID, c.Name, c.X, c.Y, c.Z, c.CurrentHealth, c.MaxHealth, c.CoreStats, c.CreatedAt, c.LastSeenAt,
	)
	if err != nil {
		return fmt.Errorf("creating companion %q: %w", c.Name, err)
	}
	return nil
}

func (r pgCompanions) Update(ctx context.Context, c *Companion) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE companions SET zone_id=$2, name=$3, x=$4, y=$5, z=$6, current_health=$7, max_health=$8, core_stats=$9, last_seen_at=$10
		 WHERE id=$1`,
		c.ID, c.ZoneID, c.Name, c.X, c.Y, c.Z, c.CurrentHealth, c.MaxHealth, c.CoreStats, c.LastSeenAt,
	)
	if err != nil {
		return fmt.Errorf("updating companion %q: %w", c.ID, err)
	}
	return nil
}

func (r pgCompanions) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM companions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting companion %q: %w", id, err)
	}
	return nil
}

func (r pgCompanions) UpdatePosition(ctx context.Context, id string, x, y, z float64) error {
	_, err := r.pool.Exec(ctx, `UPDATE companions SET x=$2, y=$3, z=$4 WHERE id=$1`, id, x, y, z)
	if err != nil {
		return fmt.Errorf("updating position for companion %q: %w", id, err)
	}
	return nil
}

func (r pgCompanions) UpdateResources(ctx context.Context, id string, res Resources) error {
	_, err := r.pool.Exec(ctx, `UPDATE companions SET current_health=$2 WHERE id=$1`, id, res.CurrentHealth)
	if err != nil {
		return fmt.Errorf("updating resources for companion %q: %w", id, err)
	}
	return nil
}

func (r pgCompanions) UpdateHealth(ctx context.Context, id string, health float64) error {
	_, err := r.pool.Exec(ctx, `UPDATE companions SET current_health=$2 WHERE id=$1`, id, health)
	if err != nil {
		return fmt.Errorf("updating health for companion %q: %w", id, err)
	}
	return nil
}

func (r pgCompanions) UpdateLastSeen(ctx context.Context, id string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE companions SET last_seen_at=$2 WHERE id=$1`, id, at)
	if err != nil {
		return fmt.Errorf("updating last-seen for companion %q: %w", id, err)
	}
	return nil
}

type pgAbilities struct{ pool *pgxpool.Pool }

const abilityColumns = `id, name, description, target_type, range, cooldown, atb_cost, is_builder, is_free,
	stamina_cost, mana_cost, health_cost, cast_time, aoe_radius,
	damage_type, damage_amount, damage_scaling_stat, damage_scaling_multiplier, has_damage,
	heal_amount, heal_scaling_stat, heal_scaling_multiplier, has_heal`

func scanAbility(row pgx.Row) (*AbilityRecord, error) {
	var a AbilityRecord
	err := row.Scan(&a.ID, &a.Name, &a.Description, &a.TargetType, &a.Range, &a.Cooldown, &a.AtbCost, &a.IsBuilder, &a.IsFree,
		&a.StaminaCost, &a.ManaCost, &a.HealthCost, &a.CastTime, &a.AoeRadius,
		&a.DamageType, &a.DamageAmount, &a.DamageScalingStat, &a.DamageScalingMultiplier, &a.HasDamage,
		&a.HealAmount, &a.HealScalingStat, &a.HealScalingMultiplier, &a.HasHeal)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r pgAbilities) Get(ctx context.Context, id string) (*AbilityRecord, error) {
	a, err := scanAbility(r.pool.QueryRow(ctx, `SELECT `+abilityColumns+` FROM abilities WHERE id = $1`, id))
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying ability %q: %w", id, err)
	}
	return a, nil
}

func (r pgAbilities) FindByName(ctx context.Context, name string) (*AbilityRecord, error) {
	a, err := scanAbility(r.pool.QueryRow(ctx, `SELECT `+abilityColumns+` FROM abilities WHERE lower(name) = lower($1)`, name))
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying ability by name %q: %w", name, err)
	}
	return a, nil
}

func (r pgAbilities) Create(ctx context.Context, a *AbilityRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO abilities (`+abilityColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)`,
		a.ID, a.Name, a.Description, a.TargetType, a.Range, a.Cooldown, a.AtbCost, a.IsBuilder, a.IsFree,
		a.StaminaCost, a.ManaCost, a.HealthCost, a.CastTime, a.AoeRadius,
		a.DamageType, a.DamageAmount, a.DamageScalingStat, a.DamageScalingMultiplier, a.HasDamage,
		a.HealAmount, a.HealScalingStat, a.HealScalingMultiplier, a.HasHeal,
	)
	if err != nil {
		return fmt.Errorf("creating ability %q: %w", a.ID, err)
	}
	return nil
}

func (r pgAbilities) Update(ctx context.Context, a *AbilityRecord) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE abilities SET name=$2, description=$3, target_type=$4, range=$5, cooldown=$6, atb_cost=$7,
		        is_builder=$8, is_free=$9, stamina_cost=$10, mana_cost=$11, health_cost=$12, cast_time=$13, aoe_radius=$14,
		        damage_type=$15, damage_amount=$16, damage_scaling_stat=$17, damage_scaling_multiplier=$18, has_damage=$19,
		        heal_amount=$20, heal_scaling_stat=$21, heal_scaling_multiplier=$22, has_heal=$23
		 WHERE id=$1`,
		a.ID, a.Name, a.Description, a.TargetType, a.Range, a.Cooldown, a.AtbCost,
		a.IsBuilder, a.IsFree, a.StaminaCost, a.ManaCost, a.HealthCost, a.CastTime, a.AoeRadius,
		a.DamageType, a.DamageAmount, a.DamageScalingStat, a.DamageScalingMultiplier, a.HasDamage,
		a.HealAmount, a.HealScalingStat, a.HealScalingMultiplier, a.HasHeal,
	)
	if err != nil {
		return fmt.Errorf("updating ability %q: %w", a.ID, err)
	}
	return nil
}

func (r pgAbilities) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM abilities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting ability %q: %w", id, err)
	}
	return nil
}

type pgZones struct{ pool *pgxpool.Pool }

func (r pgZones) Get(ctx context.Context, id int32) (*ZoneRecord, error) {
	var z ZoneRecord
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, content_rating, world_x, world_y, world_z, size_x, size_y, size_z
		 FROM zones WHERE id = $1`, id,
	).Scan(&z.ID, &z.Name, &z.Description, &z.ContentRating, &z.WorldX, &z.WorldY, &z.WorldZ, &z.SizeX, &z.SizeY, &z.SizeZ)
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying zone %d: %w", id, err)
	}
	return &z, nil
}

func (r pgZones) FindByName(ctx context.Context, name string) (*ZoneRecord, error) {
	var z ZoneRecord
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, content_rating, world_x, world_y, world_z, size_x, size_y, size_z
		 FROM zones WHERE lower(name) = lower($1)`, name,
	).Scan(&z.ID, &z.Name, &z.Description, &z.ContentRating, &z.WorldX, &z.WorldY, &z.WorldZ, &z.SizeX, &z.SizeY, &z.SizeZ)
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying zone by name %q: %w", name, err)
	}
	return &z, nil
}

func (r pgZones) All(ctx context.Context) ([]*ZoneRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, content_rating, world_x, world_y, world_z, size_x, size_y, size_z FROM zones ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying zones: %w", err)
	}
	defer rows.Close()

	var out []*ZoneRecord
	for rows.Next() {
		var z ZoneRecord
		if err := rows.Scan(&z.ID, &z.Name, &z.Description, &z.ContentRating, &z.WorldX, &z.WorldY, &z.WorldZ, &z.SizeX, &z.SizeY, &z.SizeZ); err != nil {
			return nil, fmt.Errorf("scanning zone row: %w", err)
		}
		out = append(out, &z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating zone rows: %w", err)
	}
	return out, nil
}

func (r pgZones) Create(ctx context.Context, z *ZoneRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO zones (id, name, description, content_rating, world_x, world_y, world_z, size_x, size_y, size_z)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		z.ID, z.Name, z.Description, z.ContentRating, z.WorldX, z.WorldY, z.WorldZ, z.SizeX, z.SizeY, z.SizeZ,
	)
	if err != nil {
		return fmt.Errorf("creating zone %d: %w", z.ID, err)
	}
	return nil
}

func (r pgZones) Update(ctx context.Context, z *ZoneRecord) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE zones SET name=$2, description=$3, content_rating=$4, world_x=$5, world_y=$6, world_z=$7, size_x=$8, size_y=$9, size_z=$10
		 WHERE id=$1`,
		z.ID, z.Name, z.Description, z.ContentRating, z.WorldX, z.WorldY, z.WorldZ, z.SizeX, z.SizeY, z.SizeZ,
	)
	if err != nil {
		return fmt.Errorf("updating zone %d: %w", z.ID, err)
	}
	return nil
}

func (r pgZones) Delete(ctx context.Context, id int32) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM zones WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting zone %d: %w", id, err)
	}
	return nil
}

type pgInventory struct{ pool *pgxpool.Pool }

func (r pgInventory) Get(ctx context.Context, id string) (*InventoryItem, error) {
	var i InventoryItem
	err := r.pool.QueryRow(ctx,
		`SELECT id, character_id, item_def_id, quantity, slot_index FROM inventory_items WHERE id = $1`, id,
	).Scan(&i.ID, &i.CharacterID, &i.ItemDefID, &i.Quantity, &i.SlotIndex)
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying inventory item %q: %w", id, err)
	}
	return &i, nil
}

func (r pgInventory) FindByZoneID(ctx context.Context, zoneID int32) ([]*InventoryItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT i.id, i.character_id, i.item_def_id, i.quantity, i.slot_index
		 FROM inventory_items i JOIN characters c ON c.id = i.character_id
		 WHERE c.zone_id = $1`, zoneID)
	if err != nil {
		return nil, fmt.Errorf("querying inventory for zone %d: %w", zoneID, err)
	}
	defer rows.Close()
	return scanInventoryRows(rows)
}

func (r pgInventory) FindByCharacterID(ctx context.Context, characterID string) ([]*InventoryItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, character_id, item_def_id, quantity, slot_index FROM inventory_items WHERE character_id = $1`, characterID)
	if err != nil {
		return nil, fmt.Errorf("querying inventory for character %q: %w", characterID, err)
	}
	defer rows.Close()
	return scanInventoryRows(rows)
}

func scanInventoryRows(rows pgx.Rows) ([]*InventoryItem, error) {
	var out []*InventoryItem
	for rows.Next() {
		var i InventoryItem
		if err := rows.Scan(&i.ID, &i.CharacterID, &i.ItemDefID, &i.Quantity, &i.SlotIndex); err != nil {
			return nil, fmt.Errorf("scanning inventory row: %w", err)
		}
		out = append(out, &i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating inventory rows: %w", err)
	}
	return out, nil
}

func (r pgInventory) Create(ctx context.Context, i *InventoryItem) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO inventory_items (id, character_id, item_def_id, quantity, slot_index) VALUES ($1,$2,$3,$4,$5)`,
		i.ID, i.CharacterID, i.ItemDefID, i.Quantity, i.SlotIndex,
	)
	if err != nil {
		return fmt.Errorf("creating inventory item: %w", err)
	}
	return nil
}

func (r pgInventory) Update(ctx context.Context, i *InventoryItem) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE inventory_items SET item_def_id=$2, quantity=$3, slot_index=$4 WHERE id=$1`,
		i.ID, i.ItemDefID, i.Quantity, i.SlotIndex,
	)
	if err != nil {
		return fmt.Errorf("updating inventory item %q: %w", i.ID, err)
	}
	return nil
}

func (r pgInventory) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting inventory item %q: %w", id, err)
	}
	return nil
}
