// Package ml holds the pretrained artifacts used to classify reviews: a
// TF-IDF vectorizer and a binary text classifier.
//
// Artifacts are JSON documents exported from a trained scikit-learn
// pipeline. The vectorizer reproduces TfidfVectorizer.transform for word
// n-grams, and three classifier kinds are supported:
//
//	logistic_regression  linear decision function, sigmoid probabilities
//	linear_svc           linear decision function, no probabilities
//	multinomial_nb       naive Bayes log-likelihoods, softmax probabilities
//
// Class 0 is genuine and class 1 is fake. An artifact declaring any other
// class order is rejected. Artifacts are immutable after
// loading and safe for concurrent use.
package ml
