package basic

type T struct{ x int }

func update(t *T) { t.x = 1 }

func race() {
	t := &T{}
	go update(t) // want `reachable from task spawned`
	t.x = 2
}

func safe() {
	t := &T{}
	update(t)
	t.x = 2
}

func branch(cond bool) {
	t := &T{}
	if cond {
		go update(t) // want `reachable from task spawned`
	}
	t.x = 3
}

func sendable() {
	n := 42
	go func(m int) { println(m) }(n)
	println(n)
}

func spawnOnly(t *T) {
	// A transfer with no later access is fine.
	go update(t)
}
