package authz

// Rule ids que interpretan los handlers HTTP. Para la policy son enteros
// opacos; el significado vive acá y en la asignación de grupos.
const (
	RuleUserAdmin  = 1 // bloquear/desbloquear usuarios, forzar reset
	RuleGroupAdmin = 2 // CRUD de grupos

	RuleDepotRead  = 10
	RuleDepotWrite = 11

	RuleSupplierRead  = 20
	RuleSupplierWrite = 21

	RuleAttachmentRead  = 30
	RuleAttachmentWrite = 31
)
