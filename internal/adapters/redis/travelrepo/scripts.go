package travelrepo

import goredis "github.com/redis/go-redis/v9"

// Each fused primitive is one Lua script, which Redis runs atomically.

// KEYS: travel hash, owner set, issued-ids set
// ARGV: id, owner, destination, description, departure_date, duration_days
var insertScript = goredis.NewScript(`
if redis.call('SADD', KEYS[3], ARGV[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1],
	'owner_id', ARGV[2],
	'destination', ARGV[3],
	'description', ARGV[4],
	'departure_date', ARGV[5],
	'duration_days', ARGV[6])
redis.call('SADD', KEYS[2], ARGV[1])
return 1
`)

// KEYS: travel hash
// ARGV: owner, destination, description, departure_date, duration_days
var updateScript = goredis.NewScript(`
if redis.call('HGET', KEYS[1], 'owner_id') ~= ARGV[1] then
	return false
end
redis.call('HSET', KEYS[1],
	'destination', ARGV[2],
	'description', ARGV[3],
	'departure_date', ARGV[4],
	'duration_days', ARGV[5])
return redis.call('HGETALL', KEYS[1])
`)

// KEYS: travel hash, owner set
// ARGV: owner, id
var deleteScript = goredis.NewScript(`
if redis.call('HGET', KEYS[1], 'owner_id') ~= ARGV[1] then
	return false
end
local fields = redis.call('HGETALL', KEYS[1])
redis.call('DEL', KEYS[1])
redis.call('SREM', KEYS[2], ARGV[2])
return fields
`)
