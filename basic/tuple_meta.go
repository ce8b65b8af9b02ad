package basic

// TupleMeta 元组元数据。Ts最高位置位时低63位为写事务编号
type TupleMeta struct {
	Ts        uint64
	IsDeleted bool
}
