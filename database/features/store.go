package features

// Store 以依赖注入的形式暴露本包的配置存储操作，
// 实现 turnstile.FeatureStore 契约
type Store struct{}

func NewStore() *Store { return &Store{} }

func (Store) GetAllFeatureConfigs() (map[string]bool, error) {
	return GetAllFeatureConfigs()
}

func (Store) UpdateFeatureConfig(featureID string, enabled bool, adminID string) error {
	return UpdateFeatureConfig(featureID, enabled, adminID)
}

func (Store) BatchUpdateFeatures(featureIDs []string, enabled bool, adminID string) (int, error) {
	return BatchUpdateFeatures(featureIDs, enabled, adminID)
}
