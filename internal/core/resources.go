package core

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/RecoveryAshes/sitesnap/internal/models"
	"github.com/RecoveryAshes/sitesnap/internal/utils"
)

const (
	// 单个克隆的平均内存消耗; 动态渲染需要一个浏览器进程
	browserCloneMemory = 300 * 1024 * 1024
	staticCloneMemory  = 50 * 1024 * 1024

	// 为系统和其他进程保留的内存
	safetyReserveMemory = 512 * 1024 * 1024
)

// availableMemory 可替换, 便于测试
var availableMemory = func() (uint64, error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return v.Available, nil
}

// capParallel 按可用内存和CPU数收紧批量并行数, 至少为1
func capParallel(requested int, mode models.RenderMode) int {
	if requested < 1 {
		return 1
	}

	perClone := uint64(browserCloneMemory)
	if mode == models.RenderStatic {
		perClone = staticCloneMemory
	}

	result := requested
	if available, err := availableMemory(); err != nil {
		utils.Warnf("获取系统内存失败, 不限制并行数: %v", err)
	} else {
		byMemory := 1
		if available > safetyReserveMemory {
			byMemory = int((available - safetyReserveMemory) / perClone)
		}
		if byMemory < result {
			result = byMemory
		}
	}
	if n := runtime.NumCPU(); mode != models.RenderStatic && n < result {
		result = n
	}
	if result < 1 {
		result = 1
	}

	if result < requested {
		utils.Warnf("系统资源有限, 并行数由 %d 降为 %d", requested, result)
	}
	return result
}
