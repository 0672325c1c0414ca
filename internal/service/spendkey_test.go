package service

import "testing"

func TestSpendKeysDeterministic(t *testing.T) {
	if VideoSpendKey(42) != VideoSpendKey(42) {
		t.Fatal("video spend key not stable")
	}
	if BalanceSpendKey(7, 3) != BalanceSpendKey(7, 3) {
		t.Fatal("balance spend key not stable")
	}
}

func TestSpendKeysDistinct(t *testing.T) {
	seen := map[string]string{}
	add := func(name, key string) {
		if prev, ok := seen[key]; ok {
			t.Fatalf("%s collides with %s", name, prev)
		}
		seen[key] = name
	}

	add("video 1", VideoSpendKey(1))
	add("video 2", VideoSpendKey(2))
	add("balance 1/1", BalanceSpendKey(1, 1))
	add("balance 1/2", BalanceSpendKey(1, 2))
	add("balance 2/1", BalanceSpendKey(2, 1))
}
