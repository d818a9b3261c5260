// Package devserver 提供一个内存态的后端实现,覆盖客户端依赖的全部
// REST 接口(条目、认证、文章、资料)。它面向本地开发与端到端测试:
// `blogctl serve` 直接拉起该服务,数据进程内存活,重启即清空。
// 错误响应统一为 {"detail": "..."} 形状,与生产后端保持一致。
package devserver
