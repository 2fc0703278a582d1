package provider

// Provider 是一个外部数据源（代码托管 / 图片 / 社交主页 / 邮件发送）。
//
// 约束：
// - 各 provider 包彼此独立，只共享 fetch 层与本包的错误类型
// - 读操作绝不向调用方返回错误：失败记日志并返回该操作约定的哨兵值
// - 凭证缺失不是错误：Configured()==false 时读操作在发起任何网络调用前短路
type Provider interface {
	Name() string
	Configured() bool
}
