package redis

const (
	// applyScript writes a batch of records atomically.
	// ARGV holds an (op, value) pair per key; op is "set" or "del".
	applyScript = `
local applied = 0

for i, key in ipairs(KEYS) do
  local op = ARGV[(i - 1) * 2 + 1]
  if op == 'del' then
    redis.call('DEL', key)
  else
    redis.call('SET', key, ARGV[(i - 1) * 2 + 2])
  end
  applied = applied + 1
end

return applied
`
)
