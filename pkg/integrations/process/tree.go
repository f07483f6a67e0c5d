package process

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// HasDescendant reports whether the process tree rooted at rootPID
// contains a process with the given name. Used by probes that identify
// "working" by a helper child the tool spawns while busy.
func HasDescendant(rootPID int, name string) bool {
	children := childMap()
	queue := []int{rootPID}
	for len(queue) > 0 {
		pid := queue[0]
		queue = queue[1:]
		for _, child := range children[pid] {
			childName, err := processName(child)
			if err == nil && childName == name {
				return true
			}
			queue = append(queue, child)
		}
	}
	return false
}

// childMap scans /proc once and builds a parent -> children index.
func childMap() map[int][]int {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil
	}
	children := make(map[int][]int)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		ppid, err := parentPID(pid)
		if err != nil {
			continue
		}
		children[ppid] = append(children[ppid], pid)
	}
	return children
}

func parentPID(pid int) (int, error) {
	data, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "stat"))
	if err != nil {
		return 0, err
	}
	stat := string(data)
	end := strings.LastIndex(stat, ")")
	if end == -1 {
		return 0, errMalformedStat
	}
	fields := strings.Fields(stat[end+1:])
	if len(fields) < 2 {
		return 0, errMalformedStat
	}
	return strconv.Atoi(fields[1])
}
