package writer

import (
	"runtime/debug"
	"sync"

	"github.com/lzhtan/intdb-bench/pkg/logger"
)

// DefaultWorkers 写入工作协程数量
const DefaultWorkers = 4

type task struct {
	fn   func()
	done chan struct{}
}

// Pool 固定大小的工作协程池。
type Pool struct {
	tasks chan task
	wg    sync.WaitGroup
	once  sync.Once
}

// NewPool 创建并启动 size 个工作协程。
func NewPool(size int) *Pool {
	if size <= 0 {
		size = DefaultWorkers
	}
	p := &Pool{tasks: make(chan task)}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker()
	}
	return p
}

// Submit 提交任务，返回的 channel 在任务结束（包括 panic）后关闭。
// 所有工作协程繁忙时阻塞。
func (p *Pool) Submit(fn func()) <-chan struct{} {
	t := task{fn: fn, done: make(chan struct{})}
	p.tasks <- t
	return t.done
}

// Close 停止接收任务并等待工作协程退出。
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.tasks)
		p.wg.Wait()
	})
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for t := range p.tasks {
		run(t)
	}
}

func run(t task) {
	defer close(t.done)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("写入任务 panic: %v\n%s", r, debug.Stack())
		}
	}()
	t.fn()
}

// Wait 等待所有 channel 关闭。
func Wait(dones ...<-chan struct{}) {
	for _, d := range dones {
		<-d
	}
}
